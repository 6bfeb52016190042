package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

func floatPtr(f float64) *float64 { return &f }

func TestFormulator_FromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want marketplace.SearchParams
	}{
		{
			name: "max price with currency symbol",
			text: "vintage denim jacket under $50",
			want: marketplace.SearchParams{Query: "vintage denim jacket", MaxPrice: floatPtr(50)},
		},
		{
			name: "min price",
			text: "nike sneakers over 20",
			want: marketplace.SearchParams{Query: "nike sneakers", MinPrice: floatPtr(20)},
		},
		{
			name: "between range",
			text: "leather boots between 10 and 30",
			want: marketplace.SearchParams{Query: "leather boots", MinPrice: floatPtr(10), MaxPrice: floatPtr(30)},
		},
		{
			name: "reversed between range is swapped",
			text: "jacket between 80 and 20",
			want: marketplace.SearchParams{Query: "jacket", MinPrice: floatPtr(20), MaxPrice: floatPtr(80)},
		},
		{
			name: "reversed open bounds are swapped",
			text: "jacket over 80 under 20",
			want: marketplace.SearchParams{Query: "jacket", MinPrice: floatPtr(20), MaxPrice: floatPtr(80)},
		},
		{
			name: "from to range",
			text: "silk scarf from $12.50 to $40",
			want: marketplace.SearchParams{Query: "silk scarf", MinPrice: floatPtr(12.5), MaxPrice: floatPtr(40)},
		},
		{
			name: "dollar dash range",
			text: "dress $15-$40",
			want: marketplace.SearchParams{Query: "dress", MinPrice: floatPtr(15), MaxPrice: floatPtr(40)},
		},
		{
			name: "decimal with unit word",
			text: "coat under 99.99 dollars",
			want: marketplace.SearchParams{Query: "coat", MaxPrice: floatPtr(99.99)},
		},
		{
			name: "sort color and explicit size",
			text: "cheapest red nike sneakers size 10",
			want: marketplace.SearchParams{Query: "red nike sneakers", Color: "red", Size: "10", SortBy: marketplace.SortPriceLow},
		},
		{
			name: "rating and letter size",
			text: "best rated wool coat xl",
			want: marketplace.SearchParams{Query: "wool coat", Size: "XL", SortBy: marketplace.SortRating},
		},
		{
			name: "newest keeps apostrophes",
			text: "Newest Levi's 501",
			want: marketplace.SearchParams{Query: "Levi's 501", SortBy: marketplace.SortNewest},
		},
		{
			name: "most expensive",
			text: "most expensive rolex",
			want: marketplace.SearchParams{Query: "rolex", SortBy: marketplace.SortPriceHigh},
		},
		{
			name: "fillers dropped",
			text: "find me a black hoodie please",
			want: marketplace.SearchParams{Query: "black hoodie", Color: "black"},
		},
		{
			name: "plain query",
			text: "  patagonia fleece  ",
			want: marketplace.SearchParams{Query: "patagonia fleece"},
		},
	}

	f := NewFormulator(zaptest.NewLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.FromText(tt.text)
			require.NoError(t, err)

			want := tt.want.WithDefaults()
			assert.Equal(t, want.Query, got.Query)
			assert.Equal(t, want.SortBy, got.SortBy)
			assert.Equal(t, want.Color, got.Color)
			assert.Equal(t, want.Size, got.Size)
			assert.Equal(t, marketplace.DefaultLimit, got.Limit)
			assertPrice(t, want.MinPrice, got.MinPrice, "min")
			assertPrice(t, want.MaxPrice, got.MaxPrice, "max")
		})
	}
}

func assertPrice(t *testing.T, want, got *float64, label string) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got, label)
		return
	}
	require.NotNil(t, got, label)
	assert.InDelta(t, *want, *got, 1e-9, label)
}

func TestFormulator_FromText_Invalid(t *testing.T) {
	f := NewFormulator(nil)

	for name, text := range map[string]string{
		"only a price": "under $50",
		"empty":        "   ",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.FromText(text)
			assert.ErrorIs(t, err, marketplace.ErrInvalidSearchParams)
		})
	}
}
