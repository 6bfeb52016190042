package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis emulates SET NX PX against a manual clock
type fakeRedis struct {
	mu      sync.Mutex
	clock   *fakeClock
	expires map[string]time.Time
	err     error
	calls   int
	lastTTL time.Duration
}

func newFakeRedis(clock *fakeClock) *fakeRedis {
	return &fakeRedis{clock: clock, expires: make(map[string]time.Time)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastTTL = expiration
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	now := f.clock.Now()
	if exp, ok := f.expires[key]; ok && now.Before(exp) {
		return redis.NewBoolResult(false, nil)
	}
	f.expires[key] = now.Add(expiration)
	return redis.NewBoolResult(true, nil)
}

func TestRedisLimiter_TryAcquire(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newFakeRedis(clock)
	l := NewRedisLimiter(store, FixedInterval(time.Second), "", nil)

	assert.True(t, l.TryAcquire(ctx, "ebay"))
	assert.False(t, l.TryAcquire(ctx, "ebay"))
	assert.True(t, l.TryAcquire(ctx, "etsy"))

	clock.Advance(time.Second)
	assert.True(t, l.TryAcquire(ctx, "ebay"))

	assert.Equal(t, time.Second, store.lastTTL)
	_, ok := store.expires[defaultKeyPrefix+"ebay"]
	assert.True(t, ok)
}

func TestRedisLimiter_ErrorRejects(t *testing.T) {
	store := newFakeRedis(newFakeClock())
	store.err = errors.New("connection refused")
	l := NewRedisLimiter(store, FixedInterval(time.Second), "test:", nil)

	assert.False(t, l.TryAcquire(context.Background(), "ebay"))
	assert.False(t, l.TryAcquire(context.Background(), "ebay"))
}

func TestRedisLimiter_ZeroIntervalSkipsStore(t *testing.T) {
	store := newFakeRedis(newFakeClock())
	l := NewRedisLimiter(store, FixedInterval(0), "", nil)

	require.True(t, l.TryAcquire(context.Background(), "ebay"))
	require.True(t, l.TryAcquire(context.Background(), "ebay"))
	assert.Equal(t, 0, store.calls)
}

func TestRedisLimiter_ConcurrentSameProvider(t *testing.T) {
	store := newFakeRedis(newFakeClock())
	l := NewRedisLimiter(store, FixedInterval(time.Second), "", nil)

	var admitted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire(context.Background(), "ebay") {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted)
}
