package ratelimit

import (
	"context"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "scout:ratelimit:"

// SetNXClient is the subset of the Redis client used by RedisLimiter
type SetNXClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisLimiter shares the depth-one limit across instances.
// An admitted dispatch owns a key that expires after the provider's minimum
// interval; SET NX makes check and update a single atomic operation.
type RedisLimiter struct {
	client    SetNXClient
	keyPrefix string
	intervals IntervalSource
	logger    *zap.Logger
}

// NewRedisLimiter creates a Redis-backed limiter
func NewRedisLimiter(client SetNXClient, intervals IntervalSource, keyPrefix string, logger *zap.Logger) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		intervals: intervals,
		logger:    logger,
	}
}

// TryAcquire admits the dispatch if no grant for the provider is still live.
// Redis errors reject: the limit must never be exceeded.
func (l *RedisLimiter) TryAcquire(ctx context.Context, id marketplace.ProviderID) bool {
	interval, err := l.intervals.MinInterval(id)
	if err != nil {
		l.logger.Warn("Rate limiter rejected provider with unknown interval",
			zap.String("provider", id.String()),
			zap.Error(err),
		)
		return false
	}
	if interval <= 0 {
		return true
	}

	ok, err := l.client.SetNX(ctx, l.keyPrefix+id.String(), time.Now().UnixMilli(), interval).Result()
	if err != nil {
		l.logger.Warn("Rate limiter store unavailable, rejecting dispatch",
			zap.String("provider", id.String()),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// Ensure RedisLimiter implements RateLimiter
var _ marketplace.RateLimiter = (*RedisLimiter)(nil)
