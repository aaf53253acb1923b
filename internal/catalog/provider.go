package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hananlabs/wishpos-backend/pkg/logger"
)

// VariantSnapshot is the point-in-time product data copied onto wishlist
// items when the caller doesn't supply it.
type VariantSnapshot struct {
	VariantRef   string  `json:"variant_ref"`
	ProductRef   string  `json:"product_ref"`
	Title        string  `json:"title"`
	VariantTitle string  `json:"variant_title"`
	Price        string  `json:"price"`
	Barcode      *string `json:"barcode,omitempty"`
	ImageURL     *string `json:"image_url,omitempty"`
}

// ProductQuery is the shape of a catalog listing request; it doubles as the
// cache key (filter + pagination cursor + location).
type ProductQuery struct {
	Filter     string
	Cursor     string
	PageSize   int
	LocationID string
}

func (q ProductQuery) cacheKey() string {
	raw := fmt.Sprintf("%s|%s|%d|%s", q.Filter, q.Cursor, q.PageSize, q.LocationID)
	sum := sha256.Sum256([]byte(raw))
	return "products:" + hex.EncodeToString(sum[:])
}

// Provider is the external catalog boundary consumed by the wishlist core.
type Provider interface {
	VariantSnapshot(ctx context.Context, variantRef string) (*VariantSnapshot, error)
	SearchProducts(ctx context.Context, query ProductQuery) (json.RawMessage, error)
}

type cachedProvider struct {
	client *ShopifyClient
	cache  Cache
	ttl    time.Duration
	logg   *logger.Logger
}

// NewProvider wraps the Shopify client with the configured burst cache.
func NewProvider(client *ShopifyClient, cache Cache, ttl time.Duration, logg *logger.Logger) (Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("shopify client is required")
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &cachedProvider{
		client: client,
		cache:  cache,
		ttl:    ttl,
		logg:   logg,
	}, nil
}

func (p *cachedProvider) VariantSnapshot(ctx context.Context, variantRef string) (*VariantSnapshot, error) {
	key := "variant:" + variantRef
	if cached, ok := p.cacheGet(ctx, key); ok {
		var snapshot VariantSnapshot
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			return &snapshot, nil
		}
	}

	snapshot, err := p.client.fetchVariant(ctx, variantRef)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(snapshot); err == nil {
		p.cacheSet(ctx, key, string(encoded))
	}
	return snapshot, nil
}

func (p *cachedProvider) SearchProducts(ctx context.Context, query ProductQuery) (json.RawMessage, error) {
	key := query.cacheKey()
	if cached, ok := p.cacheGet(ctx, key); ok {
		return json.RawMessage(cached), nil
	}

	data, err := p.client.fetchProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	p.cacheSet(ctx, key, string(data))
	return data, nil
}

// Cache failures degrade to upstream calls; they are logged, never surfaced.
func (p *cachedProvider) cacheGet(ctx context.Context, key string) (string, bool) {
	value, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		if p.logg != nil {
			p.logg.Warn(ctx, "catalog cache read failed")
		}
		return "", false
	}
	return value, ok
}

func (p *cachedProvider) cacheSet(ctx context.Context, key, value string) {
	if err := p.cache.Set(ctx, key, value, p.ttl); err != nil && p.logg != nil {
		p.logg.Warn(ctx, "catalog cache write failed")
	}
}
