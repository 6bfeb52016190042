package marketplace

import "errors"

var (
	// Configuration errors. These are the only errors that escape a fan-out search.
	ErrUnknownProvider     = errors.New("marketplace: unknown provider")
	ErrProviderExists      = errors.New("marketplace: provider already registered")
	ErrInvalidProvider     = errors.New("marketplace: invalid provider config")
	ErrInvalidSearchParams = errors.New("marketplace: invalid search params")

	// Per-provider dispatch errors. These are recorded on ProviderSearchResult
	// and never propagate to the caller of a fan-out search.
	ErrProviderTimeout     = errors.New("marketplace: provider timeout")
	ErrProviderUnavailable = errors.New("marketplace: provider unavailable")
	ErrProviderBadStatus   = errors.New("marketplace: provider returned error status")
	ErrMalformedResponse   = errors.New("marketplace: malformed provider response")
	ErrProviderRateLimited = errors.New("marketplace: rate limit")
	ErrProviderDisabled    = errors.New("marketplace: provider disabled")
	ErrNoAdapter           = errors.New("marketplace: no adapter registered")
	ErrAdapterPanic        = errors.New("marketplace: adapter panicked")
)
