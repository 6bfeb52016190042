package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory KVClient
type fakeKV struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisResultCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	c := NewRedisResultCache(kv, "")

	want := sampleResult("s1")
	require.NoError(t, c.Set(ctx, "abc", want, 30*time.Second))

	assert.Contains(t, kv.values, "scout:results:abc")
	assert.Equal(t, 30*time.Second, kv.ttls["scout:results:abc"])

	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.SearchID, got.SearchID)
	assert.Equal(t, want.TotalTime, got.TotalTime)
	require.Len(t, got.Products, 1)
	assert.InDelta(t, 23.74, got.Products[0].Price, 1e-9)
	assert.Equal(t, want.Providers[0].Elapsed, got.Providers[0].Elapsed)
}

func TestRedisResultCache_Miss(t *testing.T) {
	c := NewRedisResultCache(newFakeKV(), "p:")
	got, ok, err := c.Get(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisResultCache_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("get error", func(t *testing.T) {
		kv := newFakeKV()
		kv.failGet = errors.New("connection reset")
		_, ok, err := NewRedisResultCache(kv, "").Get(ctx, "k")
		assert.False(t, ok)
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("corrupt payload", func(t *testing.T) {
		kv := newFakeKV()
		kv.values["scout:results:k"] = "{not json"
		_, ok, err := NewRedisResultCache(kv, "").Get(ctx, "k")
		assert.False(t, ok)
		assert.ErrorContains(t, err, "decode")
	})

	t.Run("set error", func(t *testing.T) {
		kv := newFakeKV()
		kv.failSet = errors.New("READONLY")
		err := NewRedisResultCache(kv, "").Set(ctx, "k", sampleResult("s"), time.Minute)
		assert.ErrorContains(t, err, "READONLY")
	})

	t.Run("zero ttl skips the write", func(t *testing.T) {
		kv := newFakeKV()
		require.NoError(t, NewRedisResultCache(kv, "").Set(ctx, "k", sampleResult("s"), 0))
		assert.Empty(t, kv.values)
	})
}

func TestResultCacheFactory(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		c, closeFn, err := NewResultCacheFactory().CreateCache(BackendMemory)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &InMemoryResultCache{}, c)
	})

	t.Run("redis backend with client", func(t *testing.T) {
		c, closeFn, err := NewResultCacheFactory(WithRedisClient(newFakeKV())).CreateCache(BackendRedis)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &RedisResultCache{}, c)
	})

	t.Run("redis backend falls back to memory", func(t *testing.T) {
		c, closeFn, err := NewResultCacheFactory().CreateCache(BackendRedis)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &InMemoryResultCache{}, c)
	})

	t.Run("redis backend without fallback", func(t *testing.T) {
		_, _, err := NewResultCacheFactory(WithInMemoryFallback(false)).CreateCache(BackendRedis)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, _, err := NewResultCacheFactory().CreateCache("memcached")
		assert.Error(t, err)
	})
}
