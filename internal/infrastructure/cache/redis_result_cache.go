package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

const defaultResultKeyPrefix = "scout:results:"

// KVClient is the subset of the Redis client used by the result cache
type KVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisResultCache implements marketplace.ResultCache on Redis so that
// several instances share cached results. Values are JSON encoded.
type RedisResultCache struct {
	client    KVClient
	keyPrefix string
}

// NewRedisResultCache creates a cache with an existing client
func NewRedisResultCache(client KVClient, keyPrefix string) *RedisResultCache {
	if keyPrefix == "" {
		keyPrefix = defaultResultKeyPrefix
	}
	return &RedisResultCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get loads and decodes a cached result
func (c *RedisResultCache) Get(ctx context.Context, key string) (*marketplace.AggregatedResult, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached result: %w", err)
	}

	var res marketplace.AggregatedResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &res, true, nil
}

// Set encodes and stores result with ttl. A non-positive ttl is a no-op.
func (c *RedisResultCache) Set(ctx context.Context, key string, result *marketplace.AggregatedResult, ttl time.Duration) error {
	if result == nil || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cached result: %w", err)
	}
	return nil
}

var _ marketplace.ResultCache = (*RedisResultCache)(nil)
