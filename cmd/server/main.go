package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/marketscout/backend/internal/application/query"
	"github.com/marketscout/backend/internal/application/search"
	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/cache"
	"github.com/marketscout/backend/internal/infrastructure/config"
	"github.com/marketscout/backend/internal/infrastructure/ecommerce"
	"github.com/marketscout/backend/internal/infrastructure/logger"
	"github.com/marketscout/backend/internal/infrastructure/ratelimit"
	"github.com/marketscout/backend/internal/infrastructure/registry"
	"github.com/marketscout/backend/internal/infrastructure/telemetry"
	"github.com/marketscout/backend/internal/interfaces/http/handler"
	"github.com/marketscout/backend/internal/interfaces/http/middleware"
	"github.com/marketscout/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			MarketScout Search API
//	@version		1.0
//	@description	Fan-out product search across second-hand and retail marketplaces

//	@host		localhost:8080
//	@BasePath	/api/v1

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	baseLog, err := logger.New(logger.FromAppConfig(cfg.App, cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = baseLog.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Telemetry
	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	log := telemetry.Bridge(baseLog, loggerProvider, telCfg.ServiceName, logger.ParseLevel(cfg.Log.Level))

	meter := meterProvider.Meter("marketscout/search")
	metrics, err := telemetry.NewSearchMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to initialize search metrics", zap.Error(err))
	}

	// Provider registry
	reg, err := registry.NewRegistryFromSettings(cfg.Providers, log)
	if err != nil {
		log.Fatal("Failed to build provider registry", zap.Error(err))
	}
	enabled := reg.ListEnabled()
	metrics.RecordEnabledProviders(ctx, len(enabled))
	for _, p := range reg.List() {
		log.Info("Provider registered",
			zap.String("provider", p.ID.String()),
			zap.Bool("enabled", p.Enabled),
			zap.Int("priority", p.Priority),
			zap.Bool("has_credential", p.HasCredential()),
		)
	}

	// Redis is shared by the limiter and the result cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("Redis close failed", zap.Error(err))
			}
		}()
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	var limiter marketplace.RateLimiter
	switch cfg.Search.LimiterBackend {
	case "redis":
		limiter = ratelimit.NewRedisLimiter(redisClient, reg, "scout:ratelimit:", log)
	default:
		limiter = ratelimit.NewMemoryLimiter(reg, ratelimit.WithLogger(log))
	}

	adapters := ecommerce.NewAdapters(reg.List(), reg, ecommerce.AdapterDeps{Logger: log})

	policy, err := search.ParseRankingPolicy(cfg.Search.RankingPolicy)
	if err != nil {
		log.Fatal("Invalid ranking policy", zap.Error(err))
	}
	aggregator := search.NewAggregator(
		search.RegistryPriorities(reg),
		search.WithPolicy(policy),
		search.WithDedup(search.DedupConfig{
			Enabled:         cfg.Search.DedupEnabled,
			TitleSimilarity: cfg.Search.DedupTitleSim,
			PriceTolerance:  cfg.Search.DedupPriceTol,
		}),
	)

	orchestrator := search.NewOrchestrator(reg, adapters, limiter, aggregator,
		search.WithLogger(log),
		search.WithMetrics(metrics),
		search.WithGlobalDeadline(cfg.Search.GlobalDeadline),
		search.WithLimiterBackend(cfg.Search.LimiterBackend),
	)

	cacheOpts := []cache.ResultCacheFactoryOption{cache.WithLogger(log)}
	if redisClient != nil {
		cacheOpts = append(cacheOpts, cache.WithRedisClient(redisClient))
	}
	resultCache, closeCache, err := cache.NewResultCacheFactory(cacheOpts...).CreateCache(cfg.Search.CacheBackend)
	if err != nil {
		log.Fatal("Failed to create result cache", zap.Error(err))
	}
	defer func() { _ = closeCache() }()

	searcher := search.NewCachedSearcher(orchestrator, resultCache, cfg.Search.CacheTTL,
		search.WithCacheLogger(log),
		search.WithCacheMetrics(metrics),
	)

	formulator := query.NewFormulator(log)
	middleware.SetupValidator()

	// HTTP
	var inboundLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		inboundLimiter = router.DefaultRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		if inboundLimiter != nil {
			defer inboundLimiter.Close()
		}
	}

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    telCfg.ServiceName,
		Logger:         log,
		TracingEnabled: tracerProvider.IsEnabled(),
		Meter:          meter,
		CORSOrigins:    cfg.HTTP.CORSAllowOrigins,
		RateLimiter:    inboundLimiter,
	})

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, reg)
	router.NewRouter(engine, router.WithHealth(systemHandler.Health)).
		Register(handler.NewSearchHandler(searcher, formulator, handler.WithDefaultLimit(cfg.Search.DefaultLimit))).
		Register(handler.NewProviderHandler(reg, cfg.Admin.Token, metrics)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("ranking_policy", string(policy)),
			zap.Int("enabled_providers", len(enabled)),
			zap.Bool("cache_enabled", searcher.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Warn("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
