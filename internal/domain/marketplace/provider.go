package marketplace

import (
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// ProviderID identifies one external marketplace
// ---------------------------------------------------------------------------

// ProviderID identifies one external marketplace
type ProviderID string

const (
	// ProviderEbay is the eBay marketplace
	ProviderEbay ProviderID = "ebay"
	// ProviderEtsy is the Etsy marketplace
	ProviderEtsy ProviderID = "etsy"
	// ProviderPoshmark is the Poshmark resale marketplace
	ProviderPoshmark ProviderID = "poshmark"
	// ProviderDepop is the Depop resale marketplace
	ProviderDepop ProviderID = "depop"
	// ProviderMercari is the Mercari marketplace
	ProviderMercari ProviderID = "mercari"
	// ProviderGrailed is the Grailed marketplace (detail lookup only)
	ProviderGrailed ProviderID = "grailed"
)

// String returns the string representation of ProviderID
func (id ProviderID) String() string {
	return string(id)
}

// ParseProviderIDs splits a comma separated provider list, trimming blanks.
func ParseProviderIDs(s string) []ProviderID {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]ProviderID, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			ids = append(ids, ProviderID(p))
		}
	}
	return ids
}

// ---------------------------------------------------------------------------
// ProviderConfig
// ---------------------------------------------------------------------------

// ProviderConfig holds the static configuration of one marketplace provider
type ProviderConfig struct {
	// ID is the unique provider identifier
	ID ProviderID `json:"id"`
	// Name is the human-readable marketplace name
	Name string `json:"name"`
	// Tag is the short prefix applied to product IDs from this provider
	Tag string `json:"tag"`
	// BaseURL is the search endpoint
	BaseURL string `json:"base_url"`
	// Host is sent as the credential host header alongside the key
	Host string `json:"host,omitempty"`
	// Enabled reports whether the provider takes part in fan-out searches
	Enabled bool `json:"enabled"`
	// Priority orders providers when merging; lower is preferred
	Priority int `json:"priority"`
	// MinInterval is the minimum time between two dispatches to this provider
	MinInterval time.Duration `json:"min_interval"`
	// Timeout bounds a single upstream request
	Timeout time.Duration `json:"timeout"`
	// CredentialEnv names the environment variable holding the API key
	CredentialEnv string `json:"credential_env,omitempty"`
	// APIKey is the resolved credential; never serialized
	APIKey string `json:"-"`
	// DetailOnly marks providers that cannot serve free-text search
	DetailOnly bool `json:"detail_only"`
}

// HasCredential returns true if a non-empty credential is available
func (c ProviderConfig) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Validate validates the provider configuration
func (c ProviderConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProvider)
	}
	if c.Tag == "" {
		return fmt.Errorf("%w: %s: tag is required", ErrInvalidProvider, c.ID)
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("%w: %s: min interval must not be negative", ErrInvalidProvider, c.ID)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s: timeout must be positive", ErrInvalidProvider, c.ID)
	}
	return nil
}

// ConfigOverride is a partial ProviderConfig; nil fields are left untouched
type ConfigOverride struct {
	BaseURL     *string        `json:"base_url,omitempty"`
	Host        *string        `json:"host,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Priority    *int           `json:"priority,omitempty"`
	MinInterval *time.Duration `json:"min_interval,omitempty"`
	Timeout     *time.Duration `json:"timeout,omitempty"`
	APIKey      *string        `json:"api_key,omitempty"`
}

// IsEmpty returns true if the override sets no field
func (o ConfigOverride) IsEmpty() bool {
	return o.BaseURL == nil && o.Host == nil && o.Enabled == nil && o.Priority == nil &&
		o.MinInterval == nil && o.Timeout == nil && o.APIKey == nil
}

// ApplyTo merges the override onto base and returns the result.
// Enabled is applied last so that a credential set in the same override counts.
func (o ConfigOverride) ApplyTo(base ProviderConfig) ProviderConfig {
	merged := base
	if o.BaseURL != nil {
		merged.BaseURL = *o.BaseURL
	}
	if o.Host != nil {
		merged.Host = *o.Host
	}
	if o.Priority != nil {
		merged.Priority = *o.Priority
	}
	if o.MinInterval != nil {
		merged.MinInterval = *o.MinInterval
	}
	if o.Timeout != nil {
		merged.Timeout = *o.Timeout
	}
	if o.APIKey != nil {
		merged.APIKey = *o.APIKey
	}
	if o.Enabled != nil {
		merged.Enabled = *o.Enabled
	}
	return merged
}
