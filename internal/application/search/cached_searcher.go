package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/telemetry"
)

// CachedSearcher serves repeated searches from a ResultCache and collapses
// identical concurrent searches into one fan-out.
type CachedSearcher struct {
	next    Searcher
	cache   marketplace.ResultCache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *telemetry.SearchMetrics
	newID   func() string
	group   singleflight.Group
}

var _ Searcher = (*CachedSearcher)(nil)

// CachedOption configures a CachedSearcher
type CachedOption func(*CachedSearcher)

// WithCacheLogger sets the logger
func WithCacheLogger(logger *zap.Logger) CachedOption {
	return func(c *CachedSearcher) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheMetrics sets the metrics recorder for cache lookups
func WithCacheMetrics(m *telemetry.SearchMetrics) CachedOption {
	return func(c *CachedSearcher) {
		c.metrics = m
	}
}

// WithCacheIDGenerator replaces the generator used for search IDs of
// results served from cache
func WithCacheIDGenerator(fn func() string) CachedOption {
	return func(c *CachedSearcher) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewCachedSearcher wraps next. A nil cache or non-positive ttl disables
// caching and every call goes straight to next.
func NewCachedSearcher(next Searcher, cache marketplace.ResultCache, ttl time.Duration, opts ...CachedOption) *CachedSearcher {
	c := &CachedSearcher{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled returns true if results are cached
func (c *CachedSearcher) Enabled() bool {
	return c.cache != nil && c.ttl > 0
}

// SearchAll returns a cached result for an identical earlier search when one
// is still fresh, otherwise it delegates and stores the result. Only results
// with at least one successful provider are stored. Cache faults are logged
// and never fail the search.
func (c *CachedSearcher) SearchAll(ctx context.Context, params marketplace.SearchParams, subset ...marketplace.ProviderID) (*marketplace.AggregatedResult, error) {
	if !c.Enabled() {
		return c.next.SearchAll(ctx, params, subset...)
	}

	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	key := CacheKey(params, subset)

	cached, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.RecordCacheLookup(ctx, telemetry.CacheError)
		c.logger.Warn("Result cache lookup failed", zap.String("key", key), zap.Error(err))
	case ok:
		c.metrics.RecordCacheLookup(ctx, telemetry.CacheHit)
		cached.SearchID = c.newID()
		cached.Cached = true
		cached.TotalTime = time.Since(start)
		c.logger.Debug("Served search from cache",
			zap.String("search_id", cached.SearchID),
			zap.String("query", params.Query),
		)
		return cached, nil
	default:
		c.metrics.RecordCacheLookup(ctx, telemetry.CacheMiss)
	}

	// Followers share the leader's fan-out, so it must not die with the
	// leader's request. Per-provider timeouts still bound it.
	shareCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		res, err := c.next.SearchAll(shareCtx, params, subset...)
		if err != nil {
			return nil, err
		}
		if len(res.SuccessfulProviders) > 0 {
			if err := c.cache.Set(shareCtx, key, res, c.ttl); err != nil {
				c.logger.Warn("Failed to store search result", zap.String("key", key), zap.Error(err))
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	res := v.(*marketplace.AggregatedResult)
	if shared {
		cp := *res
		cp.SearchID = c.newID()
		return &cp, nil
	}
	return res, nil
}

// cacheKeyInput is the canonical form hashed by CacheKey
type cacheKeyInput struct {
	Params    marketplace.SearchParams `json:"params"`
	Providers []string                 `json:"providers,omitempty"`
}

// CacheKey fingerprints a search. Params are normalized and the subset is
// sorted and deduplicated, so equivalent searches share a key.
func CacheKey(params marketplace.SearchParams, subset []marketplace.ProviderID) string {
	in := cacheKeyInput{Params: params.WithDefaults()}
	for _, id := range subset {
		in.Providers = append(in.Providers, string(id))
	}
	slices.Sort(in.Providers)
	in.Providers = slices.Compact(in.Providers)

	// SearchParams holds only strings, numbers and pointers to numbers.
	raw, _ := json.Marshal(in)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
