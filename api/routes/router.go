package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hananlabs/wishpos-backend/api/controllers"
	"github.com/hananlabs/wishpos-backend/api/middleware"
	"github.com/hananlabs/wishpos-backend/internal/catalog"
	"github.com/hananlabs/wishpos-backend/internal/wishlists"
	"github.com/hananlabs/wishpos-backend/pkg/config"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers. CatalogProvider and
// the ready checks are optional; Gatherer defaults to the global registry.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Wishlists       wishlists.Service
	CatalogProvider catalog.Provider
	ReadyChecks     []controllers.ReadyCheck
	Gatherer        prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.ReadyChecks...))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Gateway(deps.Logger))

		r.Route("/wishlists", func(r chi.Router) {
			r.Post("/", controllers.CreateWishlist(deps.Wishlists, deps.Logger))
			r.Get("/", controllers.SearchWishlists(deps.Wishlists, deps.Logger))
			r.Route("/{wishlistId}", func(r chi.Router) {
				r.Get("/", controllers.GetWishlist(deps.Wishlists, deps.Logger))
				r.Put("/items", controllers.UpdateWishlistItems(deps.Wishlists, deps.Logger))
				r.Get("/qr", controllers.WishlistQR(deps.Wishlists, deps.Logger))
				r.Get("/status", controllers.WishlistStatus(deps.Wishlists, deps.Logger))
				r.Post("/cancel", controllers.CancelWishlist(deps.Wishlists, deps.Logger))
				r.Post("/expire", controllers.ExpireWishlist(deps.Wishlists, deps.Logger))
			})
		})

		r.Route("/pos", func(r chi.Router) {
			r.Post("/redeem", controllers.POSRedeemToken(deps.Wishlists, deps.Logger))
			r.Post("/wishlists/{wishlistId}/redeem", controllers.POSRedeemWishlist(deps.Wishlists, deps.Logger))
			r.Post("/wishlists/{wishlistId}/complete", controllers.POSCompleteWishlist(deps.Wishlists, deps.Logger))
		})

		r.Get("/catalog/products", controllers.CatalogProducts(deps.CatalogProvider, deps.Logger))
	})

	return r
}
