package ecommerce

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/tidwall/gjson"
)

const poshmarkOrigin = "https://poshmark.com"

var poshmarkSort = map[marketplace.SortOption]string{
	marketplace.SortPriceLow:  "price_asc",
	marketplace.SortPriceHigh: "price_desc",
	marketplace.SortNewest:    "added_desc",
}

// poshmarkConditions maps Poshmark condition codes to readable labels
var poshmarkConditions = map[string]string{
	"nwt":     "new with tags",
	"ret":     "new (boutique)",
	"not_nwt": "used",
}

// PoshmarkAdapter searches Poshmark resale listings
type PoshmarkAdapter struct {
	baseAdapter
}

// NewPoshmarkAdapter creates a new Poshmark adapter
func NewPoshmarkAdapter(configs ConfigSource, deps AdapterDeps) *PoshmarkAdapter {
	return &PoshmarkAdapter{baseAdapter: newBaseAdapter(marketplace.ProviderPoshmark, configs, deps)}
}

// Search runs a free-text search against Poshmark
func (a *PoshmarkAdapter) Search(ctx context.Context, params marketplace.SearchParams) ([]marketplace.CanonicalProduct, error) {
	return a.search(ctx, params, a)
}

func (a *PoshmarkAdapter) buildQuery(p marketplace.SearchParams) url.Values {
	q := url.Values{}
	q.Set("query", p.Query)
	domain := "us"
	if p.Country != "" {
		domain = strings.ToLower(p.Country)
	}
	q.Set("domain", domain)
	if p.Brand != "" {
		q.Set("brand", p.Brand)
	}
	if p.Size != "" {
		q.Set("size", p.Size)
	}
	if p.Color != "" {
		q.Set("color", p.Color)
	}
	if p.Category != "" {
		q.Set("department", p.Category)
	}
	if p.MinPrice != nil {
		q.Set("price_min", formatAmount(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		q.Set("price_max", formatAmount(*p.MaxPrice))
	}
	if s, ok := poshmarkSort[p.SortBy]; ok {
		q.Set("sort_by", s)
	}
	if p.Limit > 0 {
		q.Set("count", strconv.Itoa(p.Limit))
	}
	return q
}

func (a *PoshmarkAdapter) itemPaths() []string {
	return []string{"data"}
}

func (a *PoshmarkAdapter) mapItem(item gjson.Result) (marketplace.CanonicalProduct, bool) {
	id := firstString(item, "id", "listing_id")
	price, currency := priceFrom(firstResult(item, "price_amount", "price"))

	condition := firstString(item, "condition")
	if label, ok := poshmarkConditions[strings.ToLower(condition)]; ok {
		condition = label
	}

	p := marketplace.CanonicalProduct{
		NativeID:    id,
		Title:       cleanText(firstString(item, "title")),
		Description: cleanText(firstString(item, "description")),
		Price:       price,
		Currency:    currency,
		ImageURL:    firstString(item, "picture_url", "cover_shot.url", "pictures.0.url"),
		Available:   true,
		Brand:       firstString(item, "brand", "brand_obj.canonical_name"),
		Condition:   condition,
		Size:        firstString(item, "size", "size_obj.display", "inventory.size_quantities.0.size_obj.display"),
		Category:    firstString(item, "category", "catalog.category_obj.display", "department.display"),
	}
	if id != "" {
		p.URL = poshmarkOrigin + "/listing/" + id
	}
	if status := firstString(item, "inventory.status", "status"); status != "" {
		p.Available = strings.EqualFold(status, "available")
	}
	if seller := firstString(item, "creator_username", "creator_display_handle"); seller != "" {
		p.Seller = &marketplace.Seller{Name: seller}
	}
	return p, true
}
