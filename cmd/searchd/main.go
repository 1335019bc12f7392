package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"

	"github.com/quartzerp/globalsearch/pkg/cache"
	"github.com/quartzerp/globalsearch/pkg/config"
	"github.com/quartzerp/globalsearch/pkg/engine"
	"github.com/quartzerp/globalsearch/pkg/indexing"
	"github.com/quartzerp/globalsearch/pkg/invalidation"
	"github.com/quartzerp/globalsearch/pkg/middleware"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/registry"
	"github.com/quartzerp/globalsearch/pkg/search"
	"github.com/quartzerp/globalsearch/pkg/strategy"
)

func main() {
	boot := logrus.New()
	boot.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		boot.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	// Entity catalog: built-in defaults, or a YAML file when configured.
	reg := registry.Default()
	if cfg.Search.RegistryFile != "" {
		reg, err = registry.LoadFile(cfg.Search.RegistryFile)
		if err != nil {
			boot.Fatalf("Failed to load entity registry from %s: %v", cfg.Search.RegistryFile, err)
		}
		boot.Infof("Loaded entity registry from %s", cfg.Search.RegistryFile)
	}

	db, err := sql.Open("postgres", cfg.Search.PostgresURL)
	if err != nil {
		boot.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Search.PostgresMaxConns)
	if err := db.PingContext(ctx); err != nil {
		boot.Fatalf("Failed to ping database: %v", err)
	}

	var metrics *observability.Metrics
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(promRegistry)
	}

	// Cache layer is optional; search runs uncached without it.
	var (
		searchCache *cache.Cache
		redisClient *redis.Client
	)
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			boot.Warnf("Redis unreachable, running without cache: %v", err)
			redisClient.Close()
			redisClient = nil
		} else {
			searchCache, err = cache.New(redisClient, reg, logger, metrics, cache.Options{
				DefaultTTL:   cfg.Cache.DefaultTTL,
				L1Size:       cfg.Cache.L1Size,
				PopularLimit: cfg.Cache.PopularLimit,
			})
			if err != nil {
				boot.Fatalf("Failed to create cache: %v", err)
			}
		}
	}

	// Index engine is pluggable; without it the service is relational-only.
	var (
		engineClient  *engine.Client
		indexStrategy *strategy.IndexEngineStrategy
		pipeline      *indexing.Pipeline
	)
	if cfg.Search.IndexEngineURL != "" {
		engineClient = engine.NewClient(cfg.Search.IndexEngineURL, cfg.Search.IndexEngineTimeout)
		indexStrategy = strategy.NewIndexEngineStrategy(engineClient, reg)
		pipeline = indexing.NewPipeline(indexStrategy, indexing.NewSQLRecordSource(db), reg, logger, metrics)
	} else {
		boot.Info("No index engine configured, running relational-only")
	}

	relational := strategy.NewRelationalStrategy(db, logger)

	var invalidator *invalidation.Service
	if searchCache != nil {
		invalidator = invalidation.New(searchCache, logger, metrics, func(event string, payload map[string]interface{}) {
			logger.WithFields(payload).WithField("event", event).Debug("Invalidation notification")
		})
	}

	svc := search.NewService(ctx, reg, indexStrategy, relational, searchCache, invalidator, pipeline, logger, metrics)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if invalidator != nil {
		go invalidator.Run(runCtx)
	}

	// Periodic cache hit-rate report.
	scheduler := cron.New()
	if invalidator != nil {
		if _, err := scheduler.AddFunc(cfg.Observability.HitRateLogSchedule, invalidator.LogHitRate); err != nil {
			boot.Fatalf("Failed to schedule hit-rate report: %v", err)
		}
		scheduler.Start()
	}

	api := newAPI(svc, logger)
	var handler http.Handler = api.routes()
	handler = middleware.RequestLogging(logger)(handler)
	if redisClient != nil {
		limiter := middleware.NewRateLimiter(redisClient, middleware.DefaultRateLimitConfig(), logger)
		handler = limiter.Middleware(handler)
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes.
	var enginePinger observability.Pinger
	if engineClient != nil {
		enginePinger = engineClient
	}
	health := observability.NewHealthChecker(db, redisClient, enginePinger)
	healthMux := mux.NewRouter()
	healthMux.HandleFunc("/healthz", health.Liveness).Methods(http.MethodGet)
	healthMux.HandleFunc("/readyz", health.Readiness).Methods(http.MethodGet)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", observability.Handler(promRegistry)).Methods(http.MethodGet)
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	go func() {
		boot.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			boot.Fatalf("Health server failed: %v", err)
		}
	}()

	go func() {
		boot.Infof("Search server listening on %s (engine: %s)", server.Addr, svc.ActiveEngine())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			boot.Fatalf("Server failed: %v", err)
		}
	}()

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		cancel()
		scheduler.Stop()
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		if redisClient != nil {
			return redisClient.Close()
		}
		return nil
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error { return db.Close() })

	if err := shutdown.WaitForShutdown(); err != nil {
		boot.Errorf("Shutdown finished with errors: %v", err)
		os.Exit(1)
	}
}
