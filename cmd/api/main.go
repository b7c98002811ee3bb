// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/templates/wifi-portal/internal/access"
	"github.com/carterperez-dev/templates/wifi-portal/internal/account"
	"github.com/carterperez-dev/templates/wifi-portal/internal/admin"
	"github.com/carterperez-dev/templates/wifi-portal/internal/auth"
	"github.com/carterperez-dev/templates/wifi-portal/internal/config"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/dashboard"
	"github.com/carterperez-dev/templates/wifi-portal/internal/events"
	"github.com/carterperez-dev/templates/wifi-portal/internal/health"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
	"github.com/carterperez-dev/templates/wifi-portal/internal/migrations"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
	"github.com/carterperez-dev/templates/wifi-portal/internal/server"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App, logger)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if err := migrations.Run(db.DB.DB, cfg.Database.MigrationsPath, logger); err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"access_ttl", jwtManager.AccessTokenTTL(),
		"kid", jwtManager.KeyID(),
	)

	var downstream events.Publisher = events.Noop{}
	var amqpPublisher *events.AMQPPublisher
	if cfg.AMQP.Enabled {
		pub, dialErr := events.Dial(
			cfg.AMQP.URL,
			cfg.AMQP.Exchange,
			cfg.AMQP.DialRetries,
			cfg.AMQP.RetryBackoff,
			logger,
		)
		if dialErr != nil {
			logger.Warn("decision events disabled", "error", dialErr)
		} else {
			amqpPublisher = pub
			downstream = pub
			logger.Info("decision events enabled", "exchange", cfg.AMQP.Exchange)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clock := core.SystemClock
	hub := notify.NewHub(redis.Client, logger)

	accountRepo := account.NewRepository(db.DB)
	authRepo := auth.NewRepository(db.DB)

	accountSvc := account.NewService(accountRepo, authRepo, hub, clock, logger)
	accountHandler := account.NewHandler(accountSvc)

	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		accountSvc,
		redis.Client,
		hub,
		clock,
		logger,
		cfg.Reset.TicketTTL,
	)
	authHandler := auth.NewHandler(authSvc, hub, logger)

	pricingRepo := pricing.NewRepository(db.DB)
	snapshot := pricing.NewSnapshot(pricingRepo, pricing.Pricing{
		Price24: cfg.Pricing.DefaultPrice24,
		Price5:  cfg.Pricing.DefaultPrice5,
	}, logger)
	if err := snapshot.Load(ctx); err != nil {
		return err
	}
	go func() {
		if err := snapshot.Watch(ctx, hub); err != nil {
			logger.Error("pricing watcher stopped", "error", err)
		}
	}()
	pricingSvc := pricing.NewService(pricingRepo, snapshot, hub, clock, logger)
	pricingHandler := pricing.NewHandler(pricingSvc)

	subscriptionRepo := subscription.NewRepository(db.DB)
	subscriptionSvc := subscription.NewService(subscription.ServiceConfig{
		Repo:           subscriptionRepo,
		Profiles:       accountSvc,
		Prices:         pricingSvc,
		Live:           hub,
		Downstream:     downstream,
		Metrics:        subscription.NewMetrics(registry),
		Clock:          clock,
		Logger:         logger,
		AccessDuration: cfg.Subscription.AccessDuration,
	})
	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	presenter := access.NewPresenter(
		subscriptionRepo,
		pricingSvc,
		cfg.Access.RevealDuration,
		logger,
	)
	dashboardSvc := dashboard.NewService(
		subscriptionSvc,
		presenter,
		pricingSvc,
		clock,
		logger,
		cfg.App.Name,
	)
	dashboardHandler := dashboard.NewHandler(
		dashboardSvc,
		hub,
		cfg.Access.StreamTick,
		logger,
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Business:   subscriptionSvc,
		Streams:    dashboardHandler,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.NewHTTPMetrics(registry).Handler)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: middleware.BypassPaths("/healthz", "/livez", "/readyz", cfg.Metrics.Path),
			Logger:     logger,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	authenticator := middleware.Authenticator(jwtManager, authSvc)
	adminOnly := middleware.RequireAdmin
	superAdminOnly := middleware.RequireSuperAdmin

	resetLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.Reset.RequestsPerMin,
			cfg.Reset.BurstPerAddress,
		),
		KeyFunc: middleware.KeyByScopeAndIP("reset"),
		Logger:  logger,
	}).Handler

	submitLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.SubmitPerMinute,
			cfg.RateLimit.SubmitPerMinute,
		),
		KeyFunc:  middleware.KeyByScopeAndAccount("submit"),
		FailOpen: true,
		Logger:   logger,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, resetLimiter)

		accountHandler.RegisterRoutes(r, authenticator)
		accountHandler.RegisterAdminRoutes(r, authenticator, adminOnly, superAdminOnly)

		pricingHandler.RegisterRoutes(r, authenticator, adminOnly)

		subscriptionHandler.RegisterRoutes(r, authenticator, submitLimiter)
		subscriptionHandler.RegisterAdminRoutes(r, authenticator, adminOnly, superAdminOnly)

		dashboardHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if amqpPublisher != nil {
		if err := amqpPublisher.Close(); err != nil {
			logger.Error("amqp close error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
