package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/emberlane/storefront-backend/api/routes"
	"github.com/emberlane/storefront-backend/internal/bus"
	"github.com/emberlane/storefront-backend/internal/cart"
	"github.com/emberlane/storefront-backend/internal/catalog"
	"github.com/emberlane/storefront-backend/internal/inventory"
	"github.com/emberlane/storefront-backend/internal/orders"
	"github.com/emberlane/storefront-backend/internal/wishlist"
	"github.com/emberlane/storefront-backend/pkg/cache"
	"github.com/emberlane/storefront-backend/pkg/config"
	"github.com/emberlane/storefront-backend/pkg/db"
	"github.com/emberlane/storefront-backend/pkg/logger"
	"github.com/emberlane/storefront-backend/pkg/metrics"
	"github.com/emberlane/storefront-backend/pkg/migrate"
	"github.com/emberlane/storefront-backend/pkg/redis"
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

	// The cache is optional: without redis, catalog reads go straight to
	// the database.
	var redisP redis.Pinger
	var cacheStore cache.Store
	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "redis unavailable, catalog cache disabled")
	} else {
		redisP = redisClient
		cacheStore = redisClient
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	busMetrics := metrics.NewBusMetrics(registry)

	hub, err := bus.NewHub(cfg.Bus, logg, busMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification hub", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, cache.New(cacheStore, cfg.Cache.TTL, logg))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		dbClient,
		orders.NewRepository(dbClient.DB()),
		cartRepo,
		catalogRepo,
		inventory.NewRepository(dbClient.DB()),
		hub,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(dbClient.DB()), catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go hub.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisP, registry, hub,
			catalogService, cartService, ordersService, wishlistService,
		),
	}

	go func() {
		<-ctx.Done()
		logg.Info(logCtx, "shutting down api server")
		server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
