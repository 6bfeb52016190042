// Package search coordinates fan-out searches across marketplace providers
// and merges their results.
package search

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/telemetry"
)

// Searcher runs one fan-out search.
// Only invalid params and unknown providers are returned as errors.
type Searcher interface {
	SearchAll(ctx context.Context, params marketplace.SearchParams, subset ...marketplace.ProviderID) (*marketplace.AggregatedResult, error)
}

const rateLimitCause = "rate limit"

// Orchestrator dispatches a search to every target provider concurrently and
// aggregates whatever settles.
type Orchestrator struct {
	registry       marketplace.ProviderRegistry
	adapters       map[marketplace.ProviderID]marketplace.ProviderAdapter
	limiter        marketplace.RateLimiter
	aggregator     *Aggregator
	logger         *zap.Logger
	metrics        *telemetry.SearchMetrics
	globalDeadline time.Duration
	limiterBackend string
	newID          func() string
}

var _ Searcher = (*Orchestrator)(nil)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the search metrics recorder
func WithMetrics(m *telemetry.SearchMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithGlobalDeadline bounds the whole fan-out. Providers still running when
// it expires are recorded as timed out. Zero disables it.
func WithGlobalDeadline(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.globalDeadline = d
	}
}

// WithLimiterBackend labels rate-limit metrics with the limiter in use
func WithLimiterBackend(name string) Option {
	return func(o *Orchestrator) {
		o.limiterBackend = name
	}
}

// WithIDGenerator replaces the search ID generator
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// NewOrchestrator creates an Orchestrator. The limiter is shared across
// searches; adapters are selected by provider ID.
func NewOrchestrator(
	registry marketplace.ProviderRegistry,
	adapters map[marketplace.ProviderID]marketplace.ProviderAdapter,
	limiter marketplace.RateLimiter,
	aggregator *Aggregator,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		registry:       registry,
		adapters:       adapters,
		limiter:        limiter,
		aggregator:     aggregator,
		logger:         zap.NewNop(),
		limiterBackend: "memory",
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.aggregator == nil {
		o.aggregator = NewAggregator(RegistryPriorities(registry))
	}
	return o
}

// target is one provider resolved for a search. A non-nil outcome means the
// provider is settled without dispatch.
type target struct {
	cfg     marketplace.ProviderConfig
	outcome *marketplace.ProviderSearchResult
}

// SearchAll runs params against the subset, or every enabled provider when
// the subset is empty, and returns the merged result. Provider failures are
// recorded on the result and never returned as errors.
func (o *Orchestrator) SearchAll(ctx context.Context, params marketplace.SearchParams, subset ...marketplace.ProviderID) (*marketplace.AggregatedResult, error) {
	start := time.Now()
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	targets, err := o.resolveTargets(subset)
	if err != nil {
		return nil, err
	}

	searchID := o.newID()
	ctx, span := telemetry.StartServiceSpan(ctx, "orchestrator", "search_all",
		telemetry.WithAttribute(telemetry.SpanAttrSearchID, searchID),
		telemetry.WithAttribute(telemetry.SpanAttrQuery, params.Query),
		telemetry.WithAttribute(telemetry.SpanAttrSort, string(params.SortBy)),
		telemetry.WithAttribute(telemetry.SpanAttrLimit, params.Limit),
	)
	defer span.End()

	o.admit(ctx, span, targets)
	results := o.fanOut(ctx, targets, params)

	aggStart := time.Now()
	products := o.aggregator.Aggregate(results, params)
	o.metrics.RecordAggregate(ctx, time.Since(aggStart))

	out := &marketplace.AggregatedResult{
		SearchID:            searchID,
		Products:            products,
		Providers:           results,
		SuccessfulProviders: []marketplace.ProviderID{},
		FailedProviders:     []marketplace.ProviderID{},
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Provider.String())
		if r.Success {
			out.SuccessfulProviders = append(out.SuccessfulProviders, r.Provider)
		} else {
			out.FailedProviders = append(out.FailedProviders, r.Provider)
		}
		o.metrics.RecordDispatch(ctx, r.Provider.String(), string(r.Status), r.Elapsed, r.Elapsed > 0)
	}
	out.TotalTime = time.Since(start)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTargets, ids,
		telemetry.SpanAttrResultCount, len(products),
		telemetry.SpanAttrFailedCount, len(out.FailedProviders),
	)
	telemetry.SetOK(span)
	o.metrics.RecordSearch(ctx, out.TotalTime, len(products), string(o.aggregator.Policy()))

	o.logger.Info("Search completed",
		zap.String("search_id", searchID),
		zap.String("query", params.Query),
		zap.Int("targets", len(results)),
		zap.Int("products", len(products)),
		zap.Int("failed", len(out.FailedProviders)),
		zap.Duration("elapsed", out.TotalTime),
	)
	return out, nil
}

// resolveTargets returns the providers to query in ascending priority.
// An explicit subset keeps its members in priority order and records
// disabled members as failed without dispatch.
func (o *Orchestrator) resolveTargets(subset []marketplace.ProviderID) ([]target, error) {
	if len(subset) == 0 {
		enabled := o.registry.ListEnabled()
		targets := make([]target, 0, len(enabled))
		for _, cfg := range enabled {
			targets = append(targets, target{cfg: cfg})
		}
		return targets, nil
	}

	wanted := make(map[marketplace.ProviderID]struct{}, len(subset))
	for _, id := range subset {
		if _, err := o.registry.GetConfig(id); err != nil {
			return nil, err
		}
		wanted[id] = struct{}{}
	}

	targets := make([]target, 0, len(wanted))
	for _, cfg := range o.registry.List() {
		if _, ok := wanted[cfg.ID]; !ok {
			continue
		}
		t := target{cfg: cfg}
		if !cfg.Enabled {
			r := marketplace.NewFailedResult(cfg.ID, marketplace.ResultStatusDisabled, marketplace.ErrProviderDisabled.Error(), 0)
			t.outcome = &r
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// admit settles targets that have no adapter or are rejected by the limiter.
// The limiter is consulted last so that skipped providers keep their slot.
func (o *Orchestrator) admit(ctx context.Context, span trace.Span, targets []target) {
	for i := range targets {
		t := &targets[i]
		if t.outcome != nil {
			continue
		}
		if _, ok := o.adapters[t.cfg.ID]; !ok {
			r := marketplace.NewFailedResult(t.cfg.ID, marketplace.ResultStatusFailed, marketplace.ErrNoAdapter.Error(), 0)
			t.outcome = &r
			continue
		}
		if !o.limiter.TryAcquire(ctx, t.cfg.ID) {
			r := marketplace.NewFailedResult(t.cfg.ID, marketplace.ResultStatusRateLimited, rateLimitCause, 0)
			t.outcome = &r
			o.metrics.RecordRateLimited(ctx, t.cfg.ID.String(), o.limiterBackend)
			telemetry.AddEvent(span, "provider.rate_limited",
				telemetry.SpanAttrProvider, t.cfg.ID.String(),
				"limiter.backend", o.limiterBackend,
			)
			o.logger.Debug("Provider skipped by rate limiter", zap.String("provider", t.cfg.ID.String()))
		}
	}
}

// fanOut dispatches every admitted target in its own goroutine and waits for
// all of them. Results keep target order.
func (o *Orchestrator) fanOut(ctx context.Context, targets []target, params marketplace.SearchParams) []marketplace.ProviderSearchResult {
	results := make([]marketplace.ProviderSearchResult, len(targets))

	dispatchCtx := ctx
	if o.globalDeadline > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, o.globalDeadline)
		defer cancel()
	}

	var wg sync.WaitGroup
	for i, t := range targets {
		if t.outcome != nil {
			results[i] = *t.outcome
			continue
		}
		adapter := o.adapters[t.cfg.ID]
		wg.Go(func() {
			results[i] = o.dispatch(dispatchCtx, t.cfg, adapter, params)
		})
	}
	wg.Wait()
	return results
}

type adapterReply struct {
	products []marketplace.CanonicalProduct
	err      error
}

// dispatch runs one adapter call bounded by the provider timeout and ctx.
// Panics inside the adapter become failed results.
func (o *Orchestrator) dispatch(ctx context.Context, cfg marketplace.ProviderConfig, adapter marketplace.ProviderAdapter, params marketplace.SearchParams) marketplace.ProviderSearchResult {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "search.dispatch",
		telemetry.WithAttribute(telemetry.SpanAttrProvider, cfg.ID.String()),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	replies := make(chan adapterReply, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				o.logger.Error("Provider adapter panicked",
					zap.String("provider", cfg.ID.String()),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				replies <- adapterReply{err: fmt.Errorf("%w: %v", marketplace.ErrAdapterPanic, rec)}
			}
		}()
		products, err := adapter.Search(callCtx, params)
		replies <- adapterReply{products: products, err: err}
	}()

	var reply adapterReply
	select {
	case reply = <-replies:
	case <-callCtx.Done():
		reply.err = fmt.Errorf("%w: %v", marketplace.ErrProviderTimeout, callCtx.Err())
	}
	elapsed := time.Since(start)

	if reply.err != nil {
		status := classify(reply.err)
		telemetry.RecordError(span, reply.err)
		telemetry.SetAttributes(span, telemetry.SpanAttrProviderState, string(status))
		return marketplace.NewFailedResult(cfg.ID, status, reply.err.Error(), elapsed)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrProviderState, string(marketplace.ResultStatusOK),
		telemetry.SpanAttrResultCount, len(reply.products),
	)
	telemetry.SetOK(span)
	return marketplace.NewSuccessResult(cfg.ID, reply.products, elapsed)
}

func classify(err error) marketplace.ResultStatus {
	if errors.Is(err, marketplace.ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return marketplace.ResultStatusTimeout
	}
	return marketplace.ResultStatusFailed
}
