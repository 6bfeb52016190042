package ecommerce

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/tidwall/gjson"
)

const (
	depopOrigin = "https://www.depop.com"
	// depopTitleLength bounds titles derived from descriptions
	depopTitleLength = 80
)

var depopSort = map[marketplace.SortOption]string{
	marketplace.SortPriceLow:  "priceAscending",
	marketplace.SortPriceHigh: "priceDescending",
	marketplace.SortNewest:    "newlyListed",
}

// DepopAdapter searches Depop listings. Depop listings carry no title, so
// one is derived from the description.
type DepopAdapter struct {
	baseAdapter
}

// NewDepopAdapter creates a new Depop adapter
func NewDepopAdapter(configs ConfigSource, deps AdapterDeps) *DepopAdapter {
	return &DepopAdapter{baseAdapter: newBaseAdapter(marketplace.ProviderDepop, configs, deps)}
}

// Search runs a free-text search against Depop
func (a *DepopAdapter) Search(ctx context.Context, params marketplace.SearchParams) ([]marketplace.CanonicalProduct, error) {
	return a.search(ctx, params, a)
}

func (a *DepopAdapter) buildQuery(p marketplace.SearchParams) url.Values {
	q := url.Values{}
	q.Set("keyword", p.Keywords())
	country := "us"
	if p.Country != "" {
		country = strings.ToLower(p.Country)
	}
	q.Set("countryCode", country)
	if p.MinPrice != nil {
		q.Set("priceMin", formatAmount(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		q.Set("priceMax", formatAmount(*p.MaxPrice))
	}
	if s, ok := depopSort[p.SortBy]; ok {
		q.Set("sortBy", s)
	}
	if p.Limit > 0 {
		q.Set("itemsPerPage", strconv.Itoa(p.Limit))
	}
	return q
}

func (a *DepopAdapter) itemPaths() []string {
	return []string{"data.products", "products", "objects"}
}

func (a *DepopAdapter) mapItem(item gjson.Result) (marketplace.CanonicalProduct, bool) {
	id := firstString(item, "id", "productId")
	description := cleanText(firstString(item, "description"))

	title := cleanText(firstString(item, "title", "name"))
	if title == "" {
		title = summarize(firstString(item, "description"), depopTitleLength)
	}

	price, currency := priceFrom(firstResult(item, "price", "pricing.original_price"))

	p := marketplace.CanonicalProduct{
		NativeID:    id,
		Title:       title,
		Description: description,
		Price:       price,
		Currency:    currency,
		ImageURL:    firstString(item, "preview.url", "preview.640", "pictures.0.url", "pictures.0.640"),
		Available:   true,
		Brand:       firstString(item, "brand", "brandName", "brand.name"),
		Condition:   firstString(item, "condition", "condition.name"),
		Size:        firstString(item, "sizes.0", "size", "sizes.0.name"),
		Category:    firstString(item, "category", "categoryName"),
	}
	if slug := firstString(item, "slug"); slug != "" {
		p.URL = depopOrigin + "/products/" + slug + "/"
	}
	if status := firstString(item, "status"); status != "" {
		p.Available = strings.EqualFold(status, "ONSALE")
	} else if sold := item.Get("sold"); sold.Exists() {
		p.Available = !sold.Bool()
	}
	if seller := firstString(item, "seller.username", "sellerUsername"); seller != "" {
		p.Seller = &marketplace.Seller{
			Name:     seller,
			Rating:   optionalFloat(item, "seller.reviewsRating"),
			Location: firstString(item, "seller.country", "countryCode"),
		}
	}
	if free := item.Get("freeShipping"); free.Exists() && free.Bool() {
		p.Shipping = &marketplace.Shipping{Free: true}
	} else if cost := optionalFloat(item, "shipping.nationalShippingCost", "nationalShippingCost"); cost != nil {
		p.Shipping = &marketplace.Shipping{Cost: cost, Free: *cost == 0}
	}
	return p, true
}
