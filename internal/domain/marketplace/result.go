package marketplace

import "time"

// ResultStatus classifies a per-provider outcome for diagnostics
type ResultStatus string

const (
	// ResultStatusOK indicates the provider answered successfully
	ResultStatusOK ResultStatus = "ok"
	// ResultStatusRateLimited indicates the provider was skipped by the rate limiter
	ResultStatusRateLimited ResultStatus = "rate_limited"
	// ResultStatusTimeout indicates the provider did not answer within its timeout
	ResultStatusTimeout ResultStatus = "timeout"
	// ResultStatusFailed indicates a transport, status or parse failure
	ResultStatusFailed ResultStatus = "failed"
	// ResultStatusDisabled indicates an explicitly requested but disabled provider
	ResultStatusDisabled ResultStatus = "disabled"
)

// ProviderSearchResult is the outcome of one provider dispatch within a search
type ProviderSearchResult struct {
	Provider ProviderID         `json:"provider"`
	Products []CanonicalProduct `json:"products"`
	Elapsed  time.Duration      `json:"elapsed"`
	Success  bool               `json:"success"`
	Status   ResultStatus       `json:"status"`
	Error    string             `json:"error,omitempty"`
}

// NewFailedResult creates a failed outcome with an empty product list
func NewFailedResult(id ProviderID, status ResultStatus, cause string, elapsed time.Duration) ProviderSearchResult {
	return ProviderSearchResult{
		Provider: id,
		Products: []CanonicalProduct{},
		Elapsed:  elapsed,
		Success:  false,
		Status:   status,
		Error:    cause,
	}
}

// NewSuccessResult creates a successful outcome
func NewSuccessResult(id ProviderID, products []CanonicalProduct, elapsed time.Duration) ProviderSearchResult {
	if products == nil {
		products = []CanonicalProduct{}
	}
	return ProviderSearchResult{
		Provider: id,
		Products: products,
		Elapsed:  elapsed,
		Success:  true,
		Status:   ResultStatusOK,
	}
}

// AggregatedResult is the final output of a fan-out search
type AggregatedResult struct {
	SearchID            string                 `json:"search_id"`
	Products            []CanonicalProduct     `json:"products"`
	Providers           []ProviderSearchResult `json:"providers"`
	TotalTime           time.Duration          `json:"total_time"`
	SuccessfulProviders []ProviderID           `json:"successful_providers"`
	FailedProviders     []ProviderID           `json:"failed_providers"`
	Cached              bool                   `json:"cached"`
}

// FailureCauses maps each failed provider to its cause text
func (r *AggregatedResult) FailureCauses() map[ProviderID]string {
	causes := make(map[ProviderID]string, len(r.FailedProviders))
	for _, p := range r.Providers {
		if !p.Success {
			causes[p.Provider] = p.Error
		}
	}
	return causes
}
