// Package ratelimit provides the per-provider dispatch limiters used by the
// search orchestrator. Both limiters admit at most one dispatch per provider
// within the provider's minimum interval and reject, never queue, the rest.
package ratelimit

import (
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

// IntervalSource resolves a provider's minimum dispatch interval
type IntervalSource interface {
	MinInterval(id marketplace.ProviderID) (time.Duration, error)
}

// IntervalFunc adapts a plain function to IntervalSource
type IntervalFunc func(id marketplace.ProviderID) (time.Duration, error)

// MinInterval calls f(id)
func (f IntervalFunc) MinInterval(id marketplace.ProviderID) (time.Duration, error) {
	return f(id)
}

// FixedInterval returns an IntervalSource applying the same interval to every provider
func FixedInterval(d time.Duration) IntervalSource {
	return IntervalFunc(func(marketplace.ProviderID) (time.Duration, error) {
		return d, nil
	})
}
