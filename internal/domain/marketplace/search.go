package marketplace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultLimit is the result limit applied when the caller sets none
	DefaultLimit = 10
	// MaxLimit is the upper bound for SearchParams.Limit
	MaxLimit = 100
)

// ---------------------------------------------------------------------------
// SortOption
// ---------------------------------------------------------------------------

// SortOption is the caller's requested ordering of merged results
type SortOption string

const (
	// SortRelevance keeps each provider's own ordering
	SortRelevance SortOption = "relevance"
	// SortPriceLow orders by numeric price ascending
	SortPriceLow SortOption = "price_low"
	// SortPriceHigh orders by numeric price descending
	SortPriceHigh SortOption = "price_high"
	// SortNewest keeps provider ordering; no cross-provider freshness signal exists
	SortNewest SortOption = "newest"
	// SortRating keeps provider ordering; no cross-provider rating signal exists
	SortRating SortOption = "rating"
)

// IsValid returns true if the sort option is valid
func (s SortOption) IsValid() bool {
	switch s {
	case SortRelevance, SortPriceLow, SortPriceHigh, SortNewest, SortRating:
		return true
	default:
		return false
	}
}

// IsPriceSort returns true if the option orders by price
func (s SortOption) IsPriceSort() bool {
	return s == SortPriceLow || s == SortPriceHigh
}

// ---------------------------------------------------------------------------
// SearchParams
// ---------------------------------------------------------------------------

// SearchParams is the canonical search request handed to the orchestrator
type SearchParams struct {
	Query    string     `json:"query" form:"q" validate:"required,max=500"`
	Category string     `json:"category,omitempty" form:"category" validate:"max=100"`
	Brand    string     `json:"brand,omitempty" form:"brand" validate:"max=100"`
	Size     string     `json:"size,omitempty" form:"size" validate:"max=50"`
	Color    string     `json:"color,omitempty" form:"color" validate:"max=50"`
	MinPrice *float64   `json:"min_price,omitempty" form:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64   `json:"max_price,omitempty" form:"max_price" validate:"omitempty,gte=0"`
	Limit    int        `json:"limit,omitempty" form:"limit" validate:"gte=0,lte=100"`
	SortBy   SortOption `json:"sort_by,omitempty" form:"sort"`
	Country  string     `json:"country,omitempty" form:"country" validate:"max=64"`
	Region   string     `json:"region,omitempty" form:"region" validate:"max=64"`
	City     string     `json:"city,omitempty" form:"city" validate:"max=64"`
}

var paramsValidator = validator.New(validator.WithRequiredStructEnabled())

// WithDefaults returns a copy with trimmed strings and default limit and sort applied
func (p SearchParams) WithDefaults() SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	p.Category = strings.TrimSpace(p.Category)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Size = strings.TrimSpace(p.Size)
	p.Color = strings.TrimSpace(p.Color)
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.SortBy == "" {
		p.SortBy = SortRelevance
	}
	return p
}

// Validate validates the search params. Call WithDefaults first.
func (p SearchParams) Validate() error {
	if err := paramsValidator.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %s", ErrInvalidSearchParams, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidSearchParams, err)
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return fmt.Errorf("%w: min price must not exceed max price", ErrInvalidSearchParams)
	}
	if p.SortBy != "" && !p.SortBy.IsValid() {
		return fmt.Errorf("%w: unsupported sort %q", ErrInvalidSearchParams, p.SortBy)
	}
	return nil
}

// Location returns the most specific locale hint, joined from city to country
func (p SearchParams) Location() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.City, p.Region, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Keywords returns the query with brand, color and size folded in, for
// providers that only accept a single free-text field.
func (p SearchParams) Keywords() string {
	parts := []string{p.Query}
	lower := strings.ToLower(p.Query)
	for _, s := range []string{p.Brand, p.Color, p.Size} {
		if s != "" && !strings.Contains(lower, strings.ToLower(s)) {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
