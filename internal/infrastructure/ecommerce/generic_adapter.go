package ecommerce

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/tidwall/gjson"
)

// GenericAdapter serves providers declared only in configuration. It sends
// a plain q/limit query and reads the most common field names.
type GenericAdapter struct {
	baseAdapter
}

// NewGenericAdapter creates an adapter for a configuration-declared provider
func NewGenericAdapter(id marketplace.ProviderID, configs ConfigSource, deps AdapterDeps) *GenericAdapter {
	return &GenericAdapter{baseAdapter: newBaseAdapter(id, configs, deps)}
}

// Search runs a free-text search against the provider
func (a *GenericAdapter) Search(ctx context.Context, params marketplace.SearchParams) ([]marketplace.CanonicalProduct, error) {
	return a.search(ctx, params, a)
}

func (a *GenericAdapter) buildQuery(p marketplace.SearchParams) url.Values {
	q := url.Values{}
	q.Set("q", p.Keywords())
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.MinPrice != nil {
		q.Set("min_price", formatAmount(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		q.Set("max_price", formatAmount(*p.MaxPrice))
	}
	if p.SortBy != "" && p.SortBy != marketplace.SortRelevance {
		q.Set("sort", string(p.SortBy))
	}
	return q
}

func (a *GenericAdapter) itemPaths() []string {
	return nil
}

func (a *GenericAdapter) mapItem(item gjson.Result) (marketplace.CanonicalProduct, bool) {
	price, currency := priceFrom(firstResult(item, "price", "amount", "cost"))
	if currency == "" {
		currency = strings.ToUpper(firstString(item, "currency", "currency_code"))
	}
	p := marketplace.CanonicalProduct{
		NativeID:    firstString(item, "id", "item_id", "listing_id", "sku"),
		Title:       cleanText(firstString(item, "title", "name")),
		Description: cleanText(firstString(item, "description", "summary")),
		Price:       price,
		Currency:    currency,
		ImageURL:    firstString(item, "image", "image_url", "imageUrl", "thumbnail", "images.0"),
		URL:         firstString(item, "url", "link", "permalink"),
		Available:   true,
		Brand:       firstString(item, "brand", "brand.name"),
		Condition:   firstString(item, "condition"),
		Size:        firstString(item, "size"),
		Category:    firstString(item, "category"),
	}
	if v := item.Get("available"); v.Exists() {
		p.Available = v.Bool()
	}
	return p, true
}
