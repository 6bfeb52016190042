package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SearchMetrics records fan-out search activity.
// A nil *SearchMetrics is valid and records nothing.
type SearchMetrics struct {
	searchesTotal     *Counter
	searchDuration    *Histogram
	dispatchTotal     *Counter
	dispatchDuration  *Histogram
	rateLimitedTotal  *Counter
	cacheLookupsTotal *Counter
	productsReturned  *Counter
	enabledProviders  *Gauge
	aggregateDuration *Histogram
}

// Cache lookup outcomes for AttrCacheResult
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// NewSearchMetrics creates the search instruments on meter.
func NewSearchMetrics(meter metric.Meter, logger *zap.Logger) (*SearchMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SearchMetrics{}
	var err error

	if sm.searchesTotal, err = NewCounter(meter,
		"scout_searches_total", "Total number of fan-out searches", "{searches}"); err != nil {
		return nil, err
	}
	if sm.searchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "scout_search_duration_seconds",
		Description: "Wall time of a fan-out search",
		Unit:        "s",
		Boundaries:  ProviderDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if sm.dispatchTotal, err = NewCounter(meter,
		"scout_provider_dispatch_total", "Provider outcomes by status", "{dispatches}"); err != nil {
		return nil, err
	}
	if sm.dispatchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "scout_provider_duration_seconds",
		Description: "Upstream marketplace call latency",
		Unit:        "s",
		Boundaries:  ProviderDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if sm.rateLimitedTotal, err = NewCounter(meter,
		"scout_provider_rate_limited_total", "Dispatches rejected by the rate limiter", "{dispatches}"); err != nil {
		return nil, err
	}
	if sm.cacheLookupsTotal, err = NewCounter(meter,
		"scout_cache_lookups_total", "Result cache lookups by outcome", "{lookups}"); err != nil {
		return nil, err
	}
	if sm.productsReturned, err = NewCounter(meter,
		"scout_products_returned_total", "Products returned after ranking and truncation", "{products}"); err != nil {
		return nil, err
	}
	if sm.enabledProviders, err = NewGauge(meter,
		"scout_enabled_providers", "Providers currently enabled for fan-out", "{providers}"); err != nil {
		return nil, err
	}
	if sm.aggregateDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "scout_aggregate_duration_seconds",
		Description: "Time spent ranking and deduplicating",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	}); err != nil {
		return nil, err
	}

	logger.Debug("Search metrics registered")
	return sm, nil
}

// RecordSearch records one completed fan-out search.
func (sm *SearchMetrics) RecordSearch(ctx context.Context, elapsed time.Duration, products int, rankingPolicy string) {
	if sm == nil {
		return
	}
	sm.searchesTotal.Inc(ctx, AttrRankingPolicy.String(rankingPolicy))
	sm.searchDuration.RecordDuration(ctx, elapsed)
	sm.productsReturned.Add(ctx, int64(products))
}

// RecordDispatch records one provider outcome. Elapsed is only recorded for
// providers that were actually called.
func (sm *SearchMetrics) RecordDispatch(ctx context.Context, provider, status string, elapsed time.Duration, called bool) {
	if sm == nil {
		return
	}
	sm.dispatchTotal.Inc(ctx, AttrProvider.String(provider), AttrProviderState.String(status))
	if called {
		sm.dispatchDuration.RecordDuration(ctx, elapsed, AttrProvider.String(provider))
	}
}

// RecordRateLimited records a dispatch rejected by the limiter.
func (sm *SearchMetrics) RecordRateLimited(ctx context.Context, provider, backend string) {
	if sm == nil {
		return
	}
	sm.rateLimitedTotal.Inc(ctx, AttrProvider.String(provider), AttrLimiter.String(backend))
}

// RecordCacheLookup records a result cache lookup outcome (CacheHit, CacheMiss or CacheError).
func (sm *SearchMetrics) RecordCacheLookup(ctx context.Context, outcome string) {
	if sm == nil {
		return
	}
	sm.cacheLookupsTotal.Inc(ctx, AttrCacheResult.String(outcome))
}

// RecordAggregate records ranking and dedup time.
func (sm *SearchMetrics) RecordAggregate(ctx context.Context, elapsed time.Duration) {
	if sm == nil {
		return
	}
	sm.aggregateDuration.RecordDuration(ctx, elapsed)
}

// RecordEnabledProviders records the current enabled provider count.
func (sm *SearchMetrics) RecordEnabledProviders(ctx context.Context, n int) {
	if sm == nil {
		return
	}
	sm.enabledProviders.Record(ctx, int64(n))
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSearchMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
