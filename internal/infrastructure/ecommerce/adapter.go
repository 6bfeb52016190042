// Package ecommerce contains the outbound marketplace adapters. Each adapter
// turns SearchParams into one provider request and maps the provider's JSON
// into CanonicalProduct records.
package ecommerce

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// AdapterDeps holds the collaborators shared by all adapters
type AdapterDeps struct {
	// HTTPClient is used for outbound calls; nil uses a default client
	HTTPClient *http.Client
	// Logger receives adapter diagnostics; nil disables logging
	Logger *zap.Logger
}

// itemMapper is the provider-specific half of an adapter
type itemMapper interface {
	// buildQuery translates canonical params into provider query parameters
	buildQuery(params marketplace.SearchParams) url.Values
	// itemPaths lists provider-specific locations of the result list
	itemPaths() []string
	// mapItem converts one raw record; false drops the record
	mapItem(item gjson.Result) (marketplace.CanonicalProduct, bool)
}

// baseAdapter holds the plumbing shared by every search adapter
type baseAdapter struct {
	id      marketplace.ProviderID
	configs ConfigSource
	client  *providerClient
	logger  *zap.Logger
}

func newBaseAdapter(id marketplace.ProviderID, configs ConfigSource, deps AdapterDeps) baseAdapter {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("provider", id.String()))
	return baseAdapter{
		id:      id,
		configs: configs,
		client:  newProviderClient(deps.HTTPClient, logger),
		logger:  logger,
	}
}

// ID returns the provider this adapter serves
func (b *baseAdapter) ID() marketplace.ProviderID {
	return b.id
}

// search runs the request/extract/map pipeline. On failure it returns an
// empty list together with the classified cause.
func (b *baseAdapter) search(ctx context.Context, params marketplace.SearchParams, m itemMapper) ([]marketplace.CanonicalProduct, error) {
	cfg, err := b.configs.GetConfig(b.id)
	if err != nil {
		return []marketplace.CanonicalProduct{}, err
	}

	body, err := b.client.doRequest(ctx, cfg, m.buildQuery(params))
	if err != nil {
		b.logFailure(err)
		return []marketplace.CanonicalProduct{}, err
	}

	items, err := extractItems(body, m.itemPaths()...)
	if err != nil {
		b.logFailure(err)
		return []marketplace.CanonicalProduct{}, err
	}

	products := make([]marketplace.CanonicalProduct, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	dropped := 0
	for _, item := range items {
		if !item.IsObject() {
			dropped++
			continue
		}
		p, ok := m.mapItem(item)
		if !ok || p.NativeID == "" || p.Title == "" {
			dropped++
			continue
		}
		p.ID = marketplace.MakeProductID(cfg.Tag, p.NativeID)
		p.Provider = cfg.ID
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if !withinPriceBounds(p.Price, params) {
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}

	if dropped > 0 {
		b.logger.Debug("Dropped unmappable provider records", zap.Int("dropped", dropped))
	}
	return products, nil
}

func (b *baseAdapter) logFailure(err error) {
	level := zap.WarnLevel
	if errors.Is(err, marketplace.ErrProviderTimeout) {
		level = zap.InfoLevel
	}
	if ce := b.logger.Check(level, "Provider search failed"); ce != nil {
		ce.Write(zap.Error(err))
	}
}

// withinPriceBounds filters on the caller's price range. Unknown prices (0)
// are kept since nothing is known about them.
func withinPriceBounds(price float64, params marketplace.SearchParams) bool {
	if price == 0 {
		return true
	}
	if params.MinPrice != nil && price < *params.MinPrice {
		return false
	}
	if params.MaxPrice != nil && price > *params.MaxPrice {
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

// NewAdapter creates the adapter for a provider. Providers without a
// dedicated adapter use the generic one; detail-only providers get the
// placeholder adapter.
func NewAdapter(cfg marketplace.ProviderConfig, configs ConfigSource, deps AdapterDeps) marketplace.ProviderAdapter {
	switch cfg.ID {
	case marketplace.ProviderEbay:
		return NewEbayAdapter(configs, deps)
	case marketplace.ProviderEtsy:
		return NewEtsyAdapter(configs, deps)
	case marketplace.ProviderPoshmark:
		return NewPoshmarkAdapter(configs, deps)
	case marketplace.ProviderDepop:
		return NewDepopAdapter(configs, deps)
	case marketplace.ProviderMercari:
		return NewMercariAdapter(configs, deps)
	case marketplace.ProviderGrailed:
		return NewGrailedAdapter(configs, deps)
	}
	if cfg.DetailOnly {
		return NewDetailOnlyAdapter(cfg.ID, configs, deps)
	}
	return NewGenericAdapter(cfg.ID, configs, deps)
}

// NewAdapters creates one adapter per configured provider
func NewAdapters(cfgs []marketplace.ProviderConfig, configs ConfigSource, deps AdapterDeps) map[marketplace.ProviderID]marketplace.ProviderAdapter {
	adapters := make(map[marketplace.ProviderID]marketplace.ProviderAdapter, len(cfgs))
	for _, cfg := range cfgs {
		adapters[cfg.ID] = NewAdapter(cfg, configs, deps)
	}
	return adapters
}
