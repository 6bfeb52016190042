package ecommerce

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/tidwall/gjson"
)

const mercariOrigin = "https://www.mercari.com"

var mercariSort = map[marketplace.SortOption]string{
	marketplace.SortPriceLow:  "price_asc",
	marketplace.SortPriceHigh: "price_desc",
	marketplace.SortNewest:    "created_desc",
}

// MercariAdapter searches Mercari listings
type MercariAdapter struct {
	baseAdapter
}

// NewMercariAdapter creates a new Mercari adapter
func NewMercariAdapter(configs ConfigSource, deps AdapterDeps) *MercariAdapter {
	return &MercariAdapter{baseAdapter: newBaseAdapter(marketplace.ProviderMercari, configs, deps)}
}

// Search runs a free-text search against Mercari
func (a *MercariAdapter) Search(ctx context.Context, params marketplace.SearchParams) ([]marketplace.CanonicalProduct, error) {
	return a.search(ctx, params, a)
}

func (a *MercariAdapter) buildQuery(p marketplace.SearchParams) url.Values {
	q := url.Values{}
	q.Set("query", p.Keywords())
	q.Set("page", "1")
	if p.MinPrice != nil {
		q.Set("minPrice", formatAmount(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		q.Set("maxPrice", formatAmount(*p.MaxPrice))
	}
	if s, ok := mercariSort[p.SortBy]; ok {
		q.Set("sort", s)
	}
	if p.Limit > 0 {
		q.Set("pageSize", strconv.Itoa(p.Limit))
	}
	return q
}

func (a *MercariAdapter) itemPaths() []string {
	return []string{"data.search.itemsList", "items", "data.items"}
}

func (a *MercariAdapter) mapItem(item gjson.Result) (marketplace.CanonicalProduct, bool) {
	id := firstString(item, "id", "productId", "itemId")
	price, currency := priceFrom(firstResult(item, "price", "itemPrice"))
	if currency == "" {
		currency = strings.ToUpper(firstString(item, "currency"))
	}

	p := marketplace.CanonicalProduct{
		NativeID:    id,
		Title:       cleanText(firstString(item, "name", "title")),
		Description: cleanText(firstString(item, "description")),
		Price:       price,
		Currency:    currency,
		ImageURL:    firstString(item, "thumbnails.0", "photos.0.thumbnail", "thumbnail", "imageUrl"),
		URL:         absoluteURL(mercariOrigin, firstString(item, "url")),
		Available:   true,
		Brand:       firstString(item, "brand.name", "brand"),
		Condition:   firstString(item, "itemCondition.name", "condition"),
		Size:        firstString(item, "itemSize.name", "size"),
		Category:    firstString(item, "itemCategory.name", "category"),
	}
	if p.URL == "" && id != "" {
		p.URL = mercariOrigin + "/us/item/" + id + "/"
	}
	if status := strings.ToLower(firstString(item, "status")); status != "" {
		p.Available = status == "on_sale" || status == "item_status_on_sale"
	}
	if seller := firstString(item, "seller.name", "seller.username"); seller != "" {
		p.Seller = &marketplace.Seller{
			Name:   seller,
			Rating: optionalFloat(item, "seller.ratings.average", "seller.rating"),
		}
	}
	if payer := strings.ToLower(firstString(item, "shippingPayer.name")); payer != "" {
		p.Shipping = &marketplace.Shipping{Free: strings.Contains(payer, "seller")}
	}
	return p, true
}
