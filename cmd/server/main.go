package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"qroute/config"
	"qroute/internal/app/model"
	"qroute/internal/app/repository"
	"qroute/internal/app/safety"
	appserver "qroute/internal/app/server"
	"qroute/internal/app/service"
	"qroute/internal/app/store"
	"qroute/internal/http/middleware"
	"qroute/internal/infra/logger"
	infraNATS "qroute/internal/infra/nats"
	infraPostgres "qroute/internal/infra/postgres"
	infraPrometheus "qroute/internal/infra/prometheus"
	infraRedis "qroute/internal/infra/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	policy := safety.Policy{
		BlockPrivateHosts: cfg.Redirect.BlockPrivateHosts,
		AllowedHosts:      cfg.Redirect.Hosts(),
	}
	defaultURL := service.DefaultRedirectURL(cfg.Redirect.DefaultURL, policy)

	log.Info("Configuration loaded",
		zap.Bool("durable_backend", cfg.Backend.Configured()),
		zap.String("default_redirect", defaultURL),
		zap.Bool("block_private_hosts", policy.BlockPrivateHosts),
		zap.Strings("allowed_hosts", policy.AllowedHosts),
		zap.Bool("redis", cfg.Redis.Configured()),
		zap.Bool("nats", cfg.NATS.Configured()),
		zap.Bool("analytics_db", cfg.Postgres.Configured()),
	)

	memory := store.NewFallback()
	seeded := memory.Seed(store.SeedSources{
		FilePath:   cfg.Seed.File,
		InlineJSON: cfg.Seed.JSON,
	}, policy, log)
	if seeded > 0 {
		log.Info("Seeded fallback store", zap.Int("routes", seeded))
	}

	var durable repository.RouteRepository
	if cfg.Backend.Configured() {
		durable = repository.NewRESTRouteRepository(repository.RESTConfig{
			BaseURL:            cfg.Backend.BaseURL,
			APIKey:             cfg.Backend.APIKey,
			Table:              cfg.Backend.Table,
			DefaultDestination: defaultURL,
			Policy:             policy,
		})
	} else {
		log.Info("No durable backend configured, routes live in memory only")
	}

	routes := service.NewRouteService(service.Config{
		Logger:             log,
		Durable:            durable,
		Memory:             memory,
		Policy:             policy,
		DefaultRedirectURL: defaultURL,
		NegativeGuard:      cfg.Redirect.NegativeGuard,
	})
	routes.WarmNegativeGuard(ctx)

	deps := appserver.Dependencies{
		Logger:            log,
		Routes:            routes,
		DurableConfigured: cfg.Backend.Configured(),
		WriteAuth: middleware.WriteAuthConfig{
			Token:                cfg.Auth.WriteToken,
			Production:           cfg.Server.Production(),
			AllowUnauthenticated: cfg.Auth.AllowUnauthWrites,
		},
		ReadLimit:  middleware.ReadRateLimitConfig(),
		WriteLimit: middleware.WriteRateLimitConfig(),
	}

	if cfg.Redis.Configured() {
		redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			// Rate limiting fails open; a dead Redis must not keep scans down.
			log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			deps.Redis = redisClient
			log.Info("Connected to Redis")
		}
	}

	var analyticsPool *pgxpool.Pool
	if cfg.Postgres.Configured() {
		gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to open analytics DB", zap.Error(err))
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		if err := infraPostgres.AutoMigrate(ctx, gormDB, &model.ScanEvent{}); err != nil {
			log.Fatal("Failed to migrate analytics schema", zap.Error(err))
		}

		analyticsPool, err = infraPostgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to connect analytics pool", zap.Error(err))
		}
		defer analyticsPool.Close()
		deps.AnalyticsPool = analyticsPool
		log.Info("Connected to analytics DB")

		if cfg.NATS.Configured() {
			natsConn, js, err := infraNATS.Connect(cfg.NATS)
			if err != nil {
				log.Fatal("Failed to connect to NATS", zap.Error(err))
			}
			defer natsConn.Drain()
			log.Info("Connected to NATS")

			deps.ScanPublisher = service.NewScanPublisher(js)

			consumer := service.NewScanConsumer(js, log, repository.NewScanEventRepository(gormDB))
			if err := consumer.Start(); err != nil {
				log.Fatal("Failed to start scan consumer", zap.Error(err))
			}
		}
	} else if cfg.NATS.Configured() {
		// Publish-only: another process drains the stream.
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()
		deps.ScanPublisher = service.NewScanPublisher(js)
		log.Info("Connected to NATS (publish only)")
	}

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	srv := appserver.New(deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	stopCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("Fiber server exited", zap.Error(err))
		}
	case <-stopCtx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
