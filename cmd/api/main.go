package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/peykantravel/peykan-storefront/api/routes"
	"github.com/peykantravel/peykan-storefront/internal/analytics"
	"github.com/peykantravel/peykan-storefront/internal/booking"
	"github.com/peykantravel/peykan-storefront/internal/cart"
	"github.com/peykantravel/peykan-storefront/internal/catalog"
	"github.com/peykantravel/peykan-storefront/internal/locale"
	sessionsvc "github.com/peykantravel/peykan-storefront/internal/session"
	"github.com/peykantravel/peykan-storefront/pkg/auth/session"
	"github.com/peykantravel/peykan-storefront/pkg/config"
	"github.com/peykantravel/peykan-storefront/pkg/db"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/metrics"
	"github.com/peykantravel/peykan-storefront/pkg/migrate"
	"github.com/peykantravel/peykan-storefront/pkg/pubsub"
	"github.com/peykantravel/peykan-storefront/pkg/redis"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	swrMetrics := metrics.NewSWRMetrics(registry)
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)

	backend, err := upstream.NewClient(cfg.Upstream.BaseURL,
		upstream.WithTimeout(cfg.Upstream.RequestTimeout),
		upstream.WithMetrics(upstreamMetrics),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create backend client", err)
		os.Exit(1)
	}

	var analyticsService *analytics.Service
	if cfg.GCP.ProjectID != "" && cfg.PubSub.AnalyticsTopic != "" {
		psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create pubsub client", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		analyticsService = analytics.NewService(psClient.AnalyticsPublisher(), logg)
	} else {
		logg.Warn(context.Background(), "analytics publishing disabled, no pubsub topic configured")
		analyticsService = analytics.NewService(nil, logg)
	}

	resolver, err := locale.NewResolver(cfg.Locale)
	if err != nil {
		logg.Error(context.Background(), "failed to create locale resolver", err)
		os.Exit(1)
	}

	defaultCurrency, err := enums.ParseCurrency(cfg.Cart.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid default currency", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(backend, cfg.SWR, swrMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	defer catalogService.Stop()

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, backend, analyticsService, logg, defaultCurrency)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	bookingService, err := booking.NewService(booking.NewStore(redisClient, cfg.Booking.DraftTTL), backend, cartService, analyticsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	sessionService, err := sessionsvc.NewService(backend, sessionManager, cfg.JWT, logg, defaultCurrency)
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront api")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			sessionManager,
			resolver,
			backend,
			catalogService,
			cartService,
			bookingService,
			sessionService,
			analyticsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
