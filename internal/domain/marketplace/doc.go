// Package marketplace contains the Marketplace Search bounded context.
// It models the fan-out search across third-party marketplaces and the
// canonical product shape every marketplace response is normalized into.
//
// Key concepts:
//   - ProviderConfig: static per-marketplace settings (endpoint, priority, throttling)
//   - SearchParams: caller-supplied canonical search request
//   - CanonicalProduct: provider-agnostic product record
//   - ProviderSearchResult / AggregatedResult: per-provider outcome and merged output
//
// Design Pattern: Ports & Adapters
//   - Ports (ProviderAdapter, RateLimiter, ProviderRegistry) are defined here
//   - Adapters (marketplace clients, limiters, registry) live in the infrastructure layer
package marketplace
