package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

// entry is a cached result with its expiration
type entry struct {
	result    marketplace.AggregatedResult
	expiresAt time.Time
}

// InMemoryResultCache implements marketplace.ResultCache with a map.
// It suits single-instance deployments and tests.
type InMemoryResultCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryResultCache creates an in-memory cache and starts a goroutine
// that evicts expired entries every cleanupInterval. Close stops it.
func NewInMemoryResultCache(cleanupInterval time.Duration) *InMemoryResultCache {
	c := &InMemoryResultCache{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	c.wg.Add(1)
	go c.cleanupLoop(cleanupInterval)

	return c
}

// Get returns a copy of the cached result when present and not expired
func (c *InMemoryResultCache) Get(_ context.Context, key string) (*marketplace.AggregatedResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	res := e.result
	return &res, true, nil
}

// Set stores a copy of result for ttl. A non-positive ttl is a no-op.
func (c *InMemoryResultCache) Set(_ context.Context, key string, result *marketplace.AggregatedResult, ttl time.Duration) error {
	if result == nil || ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{result: *result, expiresAt: c.now().Add(ttl)}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryResultCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryResultCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries
func (c *InMemoryResultCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of stored entries, expired or not
func (c *InMemoryResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ marketplace.ResultCache = (*InMemoryResultCache)(nil)
