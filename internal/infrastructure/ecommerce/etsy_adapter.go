package ecommerce

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const etsyOrigin = "https://www.etsy.com"

// EtsyAdapter searches active Etsy listings
type EtsyAdapter struct {
	baseAdapter
}

// NewEtsyAdapter creates a new Etsy adapter
func NewEtsyAdapter(configs ConfigSource, deps AdapterDeps) *EtsyAdapter {
	return &EtsyAdapter{baseAdapter: newBaseAdapter(marketplace.ProviderEtsy, configs, deps)}
}

// Search runs a free-text search against Etsy
func (a *EtsyAdapter) Search(ctx context.Context, params marketplace.SearchParams) ([]marketplace.CanonicalProduct, error) {
	return a.search(ctx, params, a)
}

func (a *EtsyAdapter) buildQuery(p marketplace.SearchParams) url.Values {
	q := url.Values{}
	q.Set("query", p.Keywords())
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.MinPrice != nil {
		q.Set("min_price", formatAmount(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		q.Set("max_price", formatAmount(*p.MaxPrice))
	}
	switch p.SortBy {
	case marketplace.SortPriceLow:
		q.Set("sort_on", "price")
		q.Set("sort_order", "asc")
	case marketplace.SortPriceHigh:
		q.Set("sort_on", "price")
		q.Set("sort_order", "desc")
	case marketplace.SortNewest:
		q.Set("sort_on", "created")
		q.Set("sort_order", "desc")
	}
	if loc := p.Location(); loc != "" {
		q.Set("location", loc)
	}
	return q
}

func (a *EtsyAdapter) itemPaths() []string {
	return []string{"data", "results"}
}

func (a *EtsyAdapter) mapItem(item gjson.Result) (marketplace.CanonicalProduct, bool) {
	id := firstString(item, "listing_id", "listingId", "id")
	price, currency := etsyPrice(item.Get("price"))

	link := firstString(item, "url")
	if link == "" && id != "" {
		link = etsyOrigin + "/listing/" + id
	}

	state := strings.ToLower(firstString(item, "state"))
	p := marketplace.CanonicalProduct{
		NativeID:    id,
		Title:       cleanText(firstString(item, "title")),
		Description: cleanText(firstString(item, "description")),
		Price:       price,
		Currency:    currency,
		ImageURL:    firstString(item, "images.0.url_570xN", "images.0.url_fullxfull", "image", "Images.0.url_570xN"),
		URL:         link,
		Available:   state == "" || state == "active",
		Category:    firstString(item, "taxonomy_path.0", "category"),
	}
	if shop := firstString(item, "shop.shop_name", "shop_name"); shop != "" {
		p.Seller = &marketplace.Seller{
			Name:     shop,
			Rating:   optionalFloat(item, "shop.review_average"),
			Location: firstString(item, "shop.location", "shop.country_iso"),
		}
	}
	if free := item.Get("is_free_shipping"); free.Exists() && free.Bool() {
		p.Shipping = &marketplace.Shipping{Free: true}
	}
	return p, true
}

// etsyPrice reads Etsy's {amount, divisor, currency_code} money object,
// falling back to the generic price reader.
func etsyPrice(r gjson.Result) (float64, string) {
	amount, divisor := r.Get("amount"), r.Get("divisor")
	if amount.Type == gjson.Number && divisor.Type == gjson.Number && divisor.Float() > 0 {
		price := decimal.NewFromFloat(amount.Float()).Div(decimal.NewFromFloat(divisor.Float()))
		return clampPrice(price.InexactFloat64()), strings.ToUpper(r.Get("currency_code").String())
	}
	return priceFrom(r)
}
