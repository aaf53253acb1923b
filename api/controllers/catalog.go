package controllers

import (
	"net/http"
	"strings"

	"github.com/hananlabs/wishpos-backend/api/responses"
	"github.com/hananlabs/wishpos-backend/api/validators"
	"github.com/hananlabs/wishpos-backend/internal/catalog"
	pkgerrors "github.com/hananlabs/wishpos-backend/pkg/errors"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
)

// CatalogProducts relays a product search to the upstream catalog through the
// burst cache. The response body is the provider's, passed through untouched.
func CatalogProducts(provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "catalog provider is not configured"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		data, err := provider.SearchProducts(r.Context(), catalog.ProductQuery{
			Filter:   strings.TrimSpace(r.URL.Query().Get("query")),
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
			PageSize: limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}
