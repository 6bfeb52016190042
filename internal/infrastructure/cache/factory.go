package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/config"
)

// Backends accepted by ResultCacheFactory.CreateCache
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NewRedisClient connects to Redis and verifies the connection with PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// ResultCacheFactory creates result caches based on configuration
type ResultCacheFactory struct {
	redisClient           KVClient
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ResultCacheFactoryOption is a functional option for configuring the factory
type ResultCacheFactoryOption func(*ResultCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ResultCacheFactoryOption {
	return func(f *ResultCacheFactory) {
		f.logger = logger
	}
}

// WithRedisClient supplies the shared Redis client for the redis backend
func WithRedisClient(client KVClient) ResultCacheFactoryOption {
	return func(f *ResultCacheFactory) {
		f.redisClient = client
	}
}

// WithInMemoryFallback controls whether the redis backend falls back to
// memory when no Redis client is available. Default is true.
func WithInMemoryFallback(allow bool) ResultCacheFactoryOption {
	return func(f *ResultCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewResultCacheFactory creates a new factory
func NewResultCacheFactory(opts ...ResultCacheFactoryOption) *ResultCacheFactory {
	f := &ResultCacheFactory{
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache returns a cache for the backend. The caller closes the
// returned closer, which is a no-op for Redis since the client is shared.
func (f *ResultCacheFactory) CreateCache(backend string) (marketplace.ResultCache, func() error, error) {
	switch backend {
	case BackendRedis:
		if f.redisClient != nil {
			f.logger.Info("Using Redis result cache")
			return NewRedisResultCache(f.redisClient, ""), func() error { return nil }, nil
		}
		if !f.allowInMemoryFallback {
			return nil, nil, fmt.Errorf("redis result cache requested but no Redis client configured")
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory result cache. " +
			"Cached results will not be shared between instances.")
		fallthrough
	case BackendMemory, "":
		c := NewInMemoryResultCache(time.Minute)
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
