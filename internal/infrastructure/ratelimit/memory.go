package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"go.uber.org/zap"
)

// MemoryLimiter is an in-process depth-one limiter keyed by provider.
// A single mutex guards the map; the provider count is small.
type MemoryLimiter struct {
	mu        sync.Mutex
	lastGrant map[marketplace.ProviderID]time.Time
	intervals IntervalSource
	now       func() time.Time
	logger    *zap.Logger
}

// MemoryOption configures a MemoryLimiter
type MemoryOption func(*MemoryLimiter)

// WithClock replaces the time source, for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		l.now = now
	}
}

// WithLogger sets the logger used for rejected lookups
func WithLogger(logger *zap.Logger) MemoryOption {
	return func(l *MemoryLimiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewMemoryLimiter creates a limiter reading intervals from the given source
func NewMemoryLimiter(intervals IntervalSource, opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		lastGrant: make(map[marketplace.ProviderID]time.Time),
		intervals: intervals,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryAcquire admits the dispatch if at least the provider's minimum interval
// has passed since the last admitted one. Check and update are atomic.
func (l *MemoryLimiter) TryAcquire(_ context.Context, id marketplace.ProviderID) bool {
	interval, err := l.intervals.MinInterval(id)
	if err != nil {
		l.logger.Warn("Rate limiter rejected provider with unknown interval",
			zap.String("provider", id.String()),
			zap.Error(err),
		)
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.lastGrant[id]; ok && now.Sub(last) < interval {
		return false
	}
	l.lastGrant[id] = now
	return true
}

// Reset forgets the last grant for a provider
func (l *MemoryLimiter) Reset(id marketplace.ProviderID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lastGrant, id)
}

// Ensure MemoryLimiter implements RateLimiter
var _ marketplace.RateLimiter = (*MemoryLimiter)(nil)
