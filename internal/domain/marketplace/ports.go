package marketplace

import (
	"context"
	"time"
)

// ProviderAdapter is the port every marketplace client implements.
// Search must not panic on upstream faults: transport, status and parse
// failures come back as an empty slice and one of the provider dispatch errors.
type ProviderAdapter interface {
	// ID returns the provider this adapter serves
	ID() ProviderID

	// Search runs one free-text search against the marketplace
	Search(ctx context.Context, params SearchParams) ([]CanonicalProduct, error)
}

// RateLimiter admits or rejects a dispatch instantly; it never blocks or queues.
type RateLimiter interface {
	// TryAcquire returns true if a dispatch to the provider is admitted now
	TryAcquire(ctx context.Context, id ProviderID) bool
}

// ProviderRegistry provides access to provider configuration
type ProviderRegistry interface {
	// GetConfig returns the configuration for a provider or ErrUnknownProvider
	GetConfig(id ProviderID) (ProviderConfig, error)

	// Override merges a partial configuration onto a provider
	Override(id ProviderID, override ConfigOverride) (ProviderConfig, error)

	// ListEnabled returns enabled providers sorted by ascending priority
	ListEnabled() []ProviderConfig

	// List returns all providers sorted by ascending priority
	List() []ProviderConfig
}

// ResultCache stores aggregated results under a search fingerprint.
// A miss is (nil, false, nil); errors are reported but never fail a search.
type ResultCache interface {
	Get(ctx context.Context, key string) (*AggregatedResult, bool, error)
	Set(ctx context.Context, key string, result *AggregatedResult, ttl time.Duration) error
}
