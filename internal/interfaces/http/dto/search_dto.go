package dto

import (
	"fmt"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

// SearchRequest is the JSON body of POST /search
type SearchRequest struct {
	marketplace.SearchParams
	Providers []string `json:"providers,omitempty"`
}

// ProviderIDs returns the requested subset as provider IDs
func (r SearchRequest) ProviderIDs() []marketplace.ProviderID {
	ids := make([]marketplace.ProviderID, 0, len(r.Providers))
	for _, p := range r.Providers {
		ids = append(ids, marketplace.ParseProviderIDs(p)...)
	}
	return ids
}

// IntentRequest is the JSON body of POST /search/intent
type IntentRequest struct {
	Text      string   `json:"text" binding:"required,max=500"`
	Providers []string `json:"providers,omitempty"`
}

// ProviderOutcome reports how one provider fared in a search
type ProviderOutcome struct {
	Provider  string `json:"provider"`
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Count     int    `json:"count"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// SearchResponse is the response body of every search endpoint
type SearchResponse struct {
	SearchID            string                         `json:"search_id"`
	Query               marketplace.SearchParams       `json:"query"`
	Products            []marketplace.CanonicalProduct `json:"products"`
	Count               int                            `json:"count"`
	TotalTimeMS         int64                          `json:"total_time_ms"`
	Cached              bool                           `json:"cached"`
	SuccessfulProviders []string                       `json:"successful_providers"`
	FailedProviders     []string                       `json:"failed_providers"`
	Providers           []ProviderOutcome              `json:"providers"`
}

// NewSearchResponse converts an aggregated result for the wire
func NewSearchResponse(params marketplace.SearchParams, res *marketplace.AggregatedResult) SearchResponse {
	resp := SearchResponse{
		SearchID:            res.SearchID,
		Query:               params,
		Products:            res.Products,
		Count:               len(res.Products),
		TotalTimeMS:         res.TotalTime.Milliseconds(),
		Cached:              res.Cached,
		SuccessfulProviders: providerStrings(res.SuccessfulProviders),
		FailedProviders:     providerStrings(res.FailedProviders),
		Providers:           make([]ProviderOutcome, 0, len(res.Providers)),
	}
	if resp.Products == nil {
		resp.Products = []marketplace.CanonicalProduct{}
	}
	for _, p := range res.Providers {
		resp.Providers = append(resp.Providers, ProviderOutcome{
			Provider:  p.Provider.String(),
			Success:   p.Success,
			Status:    string(p.Status),
			Count:     len(p.Products),
			ElapsedMS: p.Elapsed.Milliseconds(),
			Error:     p.Error,
		})
	}
	return resp
}

func providerStrings(ids []marketplace.ProviderID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// ProviderResponse is the diagnostic view of a provider. Credentials are
// reported only as present or absent.
type ProviderResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Tag           string `json:"tag"`
	BaseURL       string `json:"base_url"`
	Enabled       bool   `json:"enabled"`
	Priority      int    `json:"priority"`
	MinIntervalMS int64  `json:"min_interval_ms"`
	TimeoutMS     int64  `json:"timeout_ms"`
	HasCredential bool   `json:"has_credential"`
	DetailOnly    bool   `json:"detail_only"`
}

// NewProviderResponse converts a provider configuration for the wire
func NewProviderResponse(cfg marketplace.ProviderConfig) ProviderResponse {
	return ProviderResponse{
		ID:            cfg.ID.String(),
		Name:          cfg.Name,
		Tag:           cfg.Tag,
		BaseURL:       cfg.BaseURL,
		Enabled:       cfg.Enabled,
		Priority:      cfg.Priority,
		MinIntervalMS: cfg.MinInterval.Milliseconds(),
		TimeoutMS:     cfg.Timeout.Milliseconds(),
		HasCredential: cfg.HasCredential(),
		DetailOnly:    cfg.DetailOnly,
	}
}

// NewProviderList converts providers, keeping their order
func NewProviderList(cfgs []marketplace.ProviderConfig) []ProviderResponse {
	out := make([]ProviderResponse, 0, len(cfgs))
	for _, cfg := range cfgs {
		out = append(out, NewProviderResponse(cfg))
	}
	return out
}

// ProviderOverrideRequest is the JSON body of PATCH /providers/:id.
// Durations use Go duration syntax, e.g. "750ms".
type ProviderOverrideRequest struct {
	BaseURL     *string `json:"base_url,omitempty" binding:"omitempty,url"`
	Host        *string `json:"host,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	MinInterval *string `json:"min_interval,omitempty"`
	Timeout     *string `json:"timeout,omitempty"`
	APIKey      *string `json:"api_key,omitempty"`
}

// ToOverride parses the request into a ConfigOverride
func (r ProviderOverrideRequest) ToOverride() (marketplace.ConfigOverride, error) {
	o := marketplace.ConfigOverride{
		BaseURL:  r.BaseURL,
		Host:     r.Host,
		Enabled:  r.Enabled,
		Priority: r.Priority,
		APIKey:   r.APIKey,
	}
	var err error
	if o.MinInterval, err = parseDuration("min_interval", r.MinInterval); err != nil {
		return o, err
	}
	if o.Timeout, err = parseDuration("timeout", r.Timeout); err != nil {
		return o, err
	}
	return o, nil
}

func parseDuration(field string, s *string) (*time.Duration, error) {
	if s == nil {
		return nil, nil
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &d, nil
}
