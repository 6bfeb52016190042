package ecommerce

import (
	"context"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

// placeholderNativeID is the native ID of the limitation record
const placeholderNativeID = "search-unsupported"

// DetailOnlyAdapter serves providers that offer listing lookup but no
// free-text search. Search answers with a single record describing the
// limitation and makes no upstream call.
type DetailOnlyAdapter struct {
	id       marketplace.ProviderID
	configs  ConfigSource
	homepage string
}

// NewDetailOnlyAdapter creates a placeholder adapter for a detail-only provider
func NewDetailOnlyAdapter(id marketplace.ProviderID, configs ConfigSource, _ AdapterDeps) *DetailOnlyAdapter {
	return &DetailOnlyAdapter{id: id, configs: configs}
}

// NewGrailedAdapter creates the Grailed adapter. Grailed exposes listing
// lookups only.
func NewGrailedAdapter(configs ConfigSource, deps AdapterDeps) *DetailOnlyAdapter {
	a := NewDetailOnlyAdapter(marketplace.ProviderGrailed, configs, deps)
	a.homepage = "https://www.grailed.com"
	return a
}

// ID returns the provider this adapter serves
func (a *DetailOnlyAdapter) ID() marketplace.ProviderID {
	return a.id
}

// Search returns the limitation record
func (a *DetailOnlyAdapter) Search(_ context.Context, _ marketplace.SearchParams) ([]marketplace.CanonicalProduct, error) {
	cfg, err := a.configs.GetConfig(a.id)
	if err != nil {
		return []marketplace.CanonicalProduct{}, err
	}
	name := cfg.Name
	if name == "" {
		name = cfg.ID.String()
	}
	return []marketplace.CanonicalProduct{{
		ID:          marketplace.MakeProductID(cfg.Tag, placeholderNativeID),
		Title:       name + " supports listing lookups only",
		Description: "Free-text search is not offered by " + name + "; open a specific listing instead.",
		URL:         a.homepage,
		Provider:    cfg.ID,
		NativeID:    placeholderNativeID,
		Available:   false,
	}}, nil
}
