package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hananlabs/wishpos-backend/pkg/config"
	pkgerrors "github.com/hananlabs/wishpos-backend/pkg/errors"
)

const variantSnapshotQuery = `query VariantSnapshot($id: ID!) {
  productVariant(id: $id) {
    id
    title
    barcode
    price
    image { url }
    product { id title featuredImage { url } }
  }
}`

const productSearchQuery = `query ProductSearch($query: String, $first: Int!, $after: String) {
  products(query: $query, first: $first, after: $after) {
    edges {
      cursor
      node {
        id
        title
        featuredImage { url }
        variants(first: 10) {
          edges { node { id title price barcode } }
        }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// ShopifyClient talks to the Shopify Admin GraphQL API. It is a passthrough:
// responses are relayed or snapshotted, never interpreted beyond field mapping.
type ShopifyClient struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewShopifyClient builds a client from catalog configuration.
func NewShopifyClient(cfg config.CatalogConfig) (*ShopifyClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("shopify shop domain and admin token are required")
	}
	return &ShopifyClient{
		endpoint: fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.ShopDomain, cfg.APIVersion),
		token:    cfg.AdminToken,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
	}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

func (c *ShopifyClient) execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode catalog query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build catalog request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call catalog provider")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read catalog response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog provider returned an error").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var decoded graphqlResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	if len(decoded.Errors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog query rejected").
			WithDetails(map[string]any{"message": decoded.Errors[0].Message})
	}
	return decoded.Data, nil
}

type variantSnapshotData struct {
	ProductVariant *struct {
		ID      string  `json:"id"`
		Title   string  `json:"title"`
		Barcode *string `json:"barcode"`
		Price   string  `json:"price"`
		Image   *struct {
			URL string `json:"url"`
		} `json:"image"`
		Product struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			FeaturedImage *struct {
				URL string `json:"url"`
			} `json:"featuredImage"`
		} `json:"product"`
	} `json:"productVariant"`
}

func (c *ShopifyClient) fetchVariant(ctx context.Context, variantRef string) (*VariantSnapshot, error) {
	data, err := c.execute(ctx, variantSnapshotQuery, map[string]any{"id": variantRef})
	if err != nil {
		return nil, err
	}

	var decoded variantSnapshotData
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode variant snapshot")
	}
	if decoded.ProductVariant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found in catalog")
	}

	v := decoded.ProductVariant
	snapshot := &VariantSnapshot{
		VariantRef:   v.ID,
		ProductRef:   v.Product.ID,
		Title:        v.Product.Title,
		VariantTitle: v.Title,
		Price:        v.Price,
		Barcode:      v.Barcode,
	}
	if v.Image != nil {
		snapshot.ImageURL = &v.Image.URL
	} else if v.Product.FeaturedImage != nil {
		snapshot.ImageURL = &v.Product.FeaturedImage.URL
	}
	return snapshot, nil
}

func (c *ShopifyClient) fetchProducts(ctx context.Context, query ProductQuery) (json.RawMessage, error) {
	first := query.PageSize
	if first <= 0 {
		first = 20
	}
	variables := map[string]any{"first": first}
	if query.Filter != "" {
		variables["query"] = query.Filter
	}
	if query.Cursor != "" {
		variables["after"] = query.Cursor
	}
	return c.execute(ctx, productSearchQuery, variables)
}
