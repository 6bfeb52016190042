package ecommerce

import (
	"context"
	"net/http"
	"testing"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const etsyFixture = `{
  "count": 2,
  "data": [
    {
      "listing_id": 1501,
      "title": "Handmade Ceramic Mug &amp; Saucer",
      "description": "<p>Glazed by hand.</p>",
      "state": "active",
      "price": {"amount": 2374, "divisor": 100, "currency_code": "usd"},
      "images": [{"url_570xN": "https://i.etsystatic.com/1.jpg"}],
      "shop": {"shop_name": "ClayWorks", "review_average": 4.8},
      "is_free_shipping": true,
      "taxonomy_path": ["Home & Living", "Kitchen"]
    },
    {
      "listing_id": 1502,
      "title": "Sold out mug",
      "state": "sold_out",
      "price": "23,74 €",
      "url": "https://www.etsy.com/listing/1502/sold-out-mug"
    }
  ]
}`

func TestEtsyAdapter_Search(t *testing.T) {
	server, last := fixtureServer(t, http.StatusOK, etsyFixture)
	a := NewEtsyAdapter(configsFor(marketplace.ProviderEtsy, "etsy", server.URL), AdapterDeps{})

	params := defaultParams("mug")
	params.SortBy = marketplace.SortPriceHigh
	params.City = "Austin"
	params.Country = "US"

	products, err := a.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, products, 2)

	q := last.URL.Query()
	assert.Equal(t, "mug", q.Get("query"))
	assert.Equal(t, "price", q.Get("sort_on"))
	assert.Equal(t, "desc", q.Get("sort_order"))
	assert.Equal(t, "Austin, US", q.Get("location"))

	mug := products[0]
	assert.Equal(t, "etsy_1501", mug.ID)
	assert.Equal(t, "Handmade Ceramic Mug & Saucer", mug.Title)
	assert.Equal(t, "Glazed by hand.", mug.Description)
	assert.InDelta(t, 23.74, mug.Price, 1e-9)
	assert.Equal(t, "USD", mug.Currency)
	assert.Equal(t, "https://www.etsy.com/listing/1501", mug.URL)
	assert.Equal(t, "https://i.etsystatic.com/1.jpg", mug.ImageURL)
	assert.Equal(t, "Home & Living", mug.Category)
	assert.True(t, mug.Available)
	require.NotNil(t, mug.Seller)
	assert.Equal(t, "ClayWorks", mug.Seller.Name)
	require.NotNil(t, mug.Shipping)
	assert.True(t, mug.Shipping.Free)

	sold := products[1]
	assert.False(t, sold.Available)
	assert.InDelta(t, 23.74, sold.Price, 1e-9)
	assert.Equal(t, "EUR", sold.Currency)
	assert.Equal(t, "https://www.etsy.com/listing/1502/sold-out-mug", sold.URL)
	assert.Empty(t, sold.Brand)
	assert.Nil(t, sold.Seller)
}
