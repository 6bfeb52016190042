package ecommerce

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/tidwall/gjson"
)

var ebayItemPath = regexp.MustCompile(`/itm/(?:[^/?]+/)?(\d+)`)

var ebaySort = map[marketplace.SortOption]string{
	marketplace.SortPriceLow:  "price_asc",
	marketplace.SortPriceHigh: "price_desc",
	marketplace.SortNewest:    "newly_listed",
}

// EbayAdapter searches eBay listings
type EbayAdapter struct {
	baseAdapter
}

// NewEbayAdapter creates a new eBay adapter
func NewEbayAdapter(configs ConfigSource, deps AdapterDeps) *EbayAdapter {
	return &EbayAdapter{baseAdapter: newBaseAdapter(marketplace.ProviderEbay, configs, deps)}
}

// Search runs a free-text search against eBay
func (a *EbayAdapter) Search(ctx context.Context, params marketplace.SearchParams) ([]marketplace.CanonicalProduct, error) {
	return a.search(ctx, params, a)
}

func (a *EbayAdapter) buildQuery(p marketplace.SearchParams) url.Values {
	q := url.Values{}
	q.Set("q", p.Keywords())
	q.Set("page", "1")
	if p.Limit > 0 {
		q.Set("per_page", strconv.Itoa(p.Limit))
	}
	if p.MinPrice != nil {
		q.Set("min_price", formatAmount(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		q.Set("max_price", formatAmount(*p.MaxPrice))
	}
	if s, ok := ebaySort[p.SortBy]; ok {
		q.Set("sort", s)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Country != "" {
		q.Set("country", strings.ToLower(p.Country))
	}
	return q
}

func (a *EbayAdapter) itemPaths() []string {
	return []string{"results", "data.results", "itemSummaries"}
}

func (a *EbayAdapter) mapItem(item gjson.Result) (marketplace.CanonicalProduct, bool) {
	link := firstString(item, "url", "link", "itemWebUrl")
	id := firstString(item, "item_id", "itemId", "id")
	if id == "" {
		if m := ebayItemPath.FindStringSubmatch(link); m != nil {
			id = m[1]
		}
	}

	price, currency := priceFrom(firstResult(item, "price", "current_price"))
	if currency == "" {
		currency = strings.ToUpper(firstString(item, "currency"))
	}

	p := marketplace.CanonicalProduct{
		NativeID:    id,
		Title:       firstString(item, "title", "name"),
		Description: cleanText(firstString(item, "subtitle", "shortDescription", "description")),
		Price:       price,
		Currency:    currency,
		ImageURL:    firstString(item, "image", "thumbnail", "image.imageUrl"),
		URL:         link,
		Available:   true,
		Brand:       firstString(item, "brand"),
		Condition:   firstString(item, "condition"),
		Category:    firstString(item, "category", "categories.0.categoryName"),
		Shipping:    shippingFrom(firstString(item, "shipping", "shippingOptions.0.shippingCost.value")),
	}
	if v := item.Get("available"); v.Exists() {
		p.Available = v.Bool()
	}
	if name := firstString(item, "seller.username", "seller.name"); name != "" {
		p.Seller = &marketplace.Seller{
			Name:     name,
			Rating:   optionalFloat(item, "seller.feedbackPercentage", "seller.rating"),
			Location: firstString(item, "location", "itemLocation.country"),
		}
	}
	return p, true
}
