package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hananlabs/wishpos-backend/api/controllers"
	"github.com/hananlabs/wishpos-backend/api/routes"
	"github.com/hananlabs/wishpos-backend/internal/catalog"
	"github.com/hananlabs/wishpos-backend/internal/idempotency"
	"github.com/hananlabs/wishpos-backend/internal/wishlists"
	"github.com/hananlabs/wishpos-backend/pkg/config"
	"github.com/hananlabs/wishpos-backend/pkg/db"
	"github.com/hananlabs/wishpos-backend/pkg/instance"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
	"github.com/hananlabs/wishpos-backend/pkg/metrics"
	"github.com/hananlabs/wishpos-backend/pkg/migrate"
	"github.com/hananlabs/wishpos-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	readyChecks := []controllers.ReadyCheck{
		{Name: "database", Check: dbClient.Ping},
	}

	// Redis is only dialed when the catalog cache asks for it.
	var redisClient *redis.Client
	if cfg.Catalog.CacheBackend == "redis" {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readyChecks = append(readyChecks, controllers.ReadyCheck{Name: "redis", Check: redisClient.Ping})
	}

	catalogProvider, err := buildCatalogProvider(cfg, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog provider", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	redemptionMetrics := metrics.NewRedemptionMetrics(registry)

	ledger, err := idempotency.NewLedger(idempotency.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency ledger", err)
		os.Exit(1)
	}

	wishlistService, err := wishlists.NewService(wishlists.ServiceParams{
		Repo:    wishlists.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Ledger:  ledger,
		Catalog: catalogProvider,
		Metrics: redemptionMetrics,
		Logger:  logg,
		Config:  cfg.Wishlist,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			Wishlists:       wishlistService,
			CatalogProvider: catalogProvider,
			ReadyChecks:     readyChecks,
			Gatherer:        registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildCatalogProvider wires the Shopify passthrough with the configured cache
// backend. A nil provider is valid; item snapshots then come from callers only.
func buildCatalogProvider(cfg *config.Config, redisClient *redis.Client, logg *logger.Logger) (catalog.Provider, error) {
	if !cfg.Catalog.Enabled() {
		logg.Info(context.Background(), "catalog passthrough disabled, item snapshots must be caller-supplied")
		return nil, nil
	}

	client, err := catalog.NewShopifyClient(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	var cache catalog.Cache
	if cfg.Catalog.CacheBackend == "redis" {
		cache, err = catalog.NewRedisCache(redisClient)
		if err != nil {
			return nil, err
		}
	} else {
		cache = catalog.NewMemoryCache()
	}

	return catalog.NewProvider(client, cache, cfg.Catalog.CacheTTL, logg)
}
