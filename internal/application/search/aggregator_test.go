package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

const (
	provA marketplace.ProviderID = "a"
	provB marketplace.ProviderID = "b"
	provC marketplace.ProviderID = "c"
)

func item(p marketplace.ProviderID, native string, price float64) marketplace.CanonicalProduct {
	return marketplace.CanonicalProduct{
		ID:        marketplace.MakeProductID(string(p), native),
		Title:     string(p) + " item " + native,
		Price:     price,
		Provider:  p,
		NativeID:  native,
		Available: true,
	}
}

func ok(p marketplace.ProviderID, products ...marketplace.CanonicalProduct) marketplace.ProviderSearchResult {
	return marketplace.NewSuccessResult(p, products, 0)
}

func ids(products []marketplace.CanonicalProduct) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

var abPriorities = StaticPriorities(map[marketplace.ProviderID]int{provA: 1, provB: 2, provC: 3})

func TestAggregator_RankingExample(t *testing.T) {
	results := []marketplace.ProviderSearchResult{
		ok(provA, item(provA, "50", 50), item(provA, "10", 10)),
		ok(provB, item(provB, "5", 5)),
	}
	params := marketplace.SearchParams{Query: "x", SortBy: marketplace.SortPriceLow, Limit: 2}

	t.Run("priority_first", func(t *testing.T) {
		agg := NewAggregator(abPriorities, WithPolicy(PolicyPriorityFirst))
		assert.Equal(t, []string{"a_10", "a_50"}, ids(agg.Aggregate(results, params)))
	})

	t.Run("global", func(t *testing.T) {
		agg := NewAggregator(abPriorities, WithPolicy(PolicyGlobal))
		assert.Equal(t, []string{"b_5", "a_10"}, ids(agg.Aggregate(results, params)))
	})
}

func TestAggregator_Ordering(t *testing.T) {
	results := []marketplace.ProviderSearchResult{
		ok(provB, item(provB, "1", 30), item(provB, "2", 0), item(provB, "3", 20)),
		ok(provA, item(provA, "1", 15), item(provA, "2", 40)),
	}

	tests := []struct {
		name   string
		policy RankingPolicy
		sort   marketplace.SortOption
		want   []string
	}{
		{
			name:   "relevance keeps provider order by priority",
			policy: PolicyPriorityFirst,
			sort:   marketplace.SortRelevance,
			want:   []string{"a_1", "a_2", "b_1", "b_2", "b_3"},
		},
		{
			name:   "newest falls back to provider order",
			policy: PolicyGlobal,
			sort:   marketplace.SortNewest,
			want:   []string{"a_1", "a_2", "b_1", "b_2", "b_3"},
		},
		{
			name:   "price high within provider",
			policy: PolicyPriorityFirst,
			sort:   marketplace.SortPriceHigh,
			want:   []string{"a_2", "a_1", "b_1", "b_3", "b_2"},
		},
		{
			name:   "global price low puts unknown price last",
			policy: PolicyGlobal,
			sort:   marketplace.SortPriceLow,
			want:   []string{"a_1", "b_3", "b_1", "a_2", "b_2"},
		},
		{
			name:   "global price high",
			policy: PolicyGlobal,
			sort:   marketplace.SortPriceHigh,
			want:   []string{"a_2", "b_1", "b_3", "a_1", "b_2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(abPriorities, WithPolicy(tt.policy))
			got := agg.Aggregate(results, marketplace.SearchParams{Query: "x", SortBy: tt.sort, Limit: 10})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestAggregator_EqualPrioritiesKeepInputOrder(t *testing.T) {
	agg := NewAggregator(StaticPriorities(map[marketplace.ProviderID]int{provA: 1, provB: 1}))
	results := []marketplace.ProviderSearchResult{
		ok(provB, item(provB, "1", 10)),
		ok(provA, item(provA, "1", 10)),
	}
	got := agg.Aggregate(results, marketplace.SearchParams{Query: "x"})
	assert.Equal(t, []string{"b_1", "a_1"}, ids(got))
}

func TestAggregator_EqualPrioritiesInterleaveByPrice(t *testing.T) {
	agg := NewAggregator(StaticPriorities(map[marketplace.ProviderID]int{provA: 1, provB: 1}))
	results := []marketplace.ProviderSearchResult{
		ok(provA, item(provA, "50", 50), item(provA, "20", 20)),
		ok(provB, item(provB, "10", 10), item(provB, "30", 30)),
	}

	tests := []struct {
		name  string
		sort  marketplace.SortOption
		limit int
		want  []string
	}{
		{name: "price low", sort: marketplace.SortPriceLow, limit: 10, want: []string{"b_10", "a_20", "b_30", "a_50"}},
		{name: "price low truncated", sort: marketplace.SortPriceLow, limit: 1, want: []string{"b_10"}},
		{name: "price high", sort: marketplace.SortPriceHigh, limit: 2, want: []string{"a_50", "b_30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.Aggregate(results, marketplace.SearchParams{Query: "x", SortBy: tt.sort, Limit: tt.limit})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestAggregator_IgnoresFailedResults(t *testing.T) {
	agg := NewAggregator(abPriorities)
	failed := marketplace.NewFailedResult(provA, marketplace.ResultStatusFailed, "boom", 0)
	failed.Products = []marketplace.CanonicalProduct{item(provA, "ghost", 1)}

	got := agg.Aggregate([]marketplace.ProviderSearchResult{failed, ok(provB, item(provB, "1", 10))},
		marketplace.SearchParams{Query: "x"})
	assert.Equal(t, []string{"b_1"}, ids(got))
}

func TestAggregator_TruncatesAfterRanking(t *testing.T) {
	agg := NewAggregator(abPriorities, WithPolicy(PolicyGlobal))
	results := []marketplace.ProviderSearchResult{
		ok(provA, item(provA, "1", 50), item(provA, "2", 40), item(provA, "3", 30)),
		ok(provB, item(provB, "1", 5)),
	}
	got := agg.Aggregate(results, marketplace.SearchParams{Query: "x", SortBy: marketplace.SortPriceLow, Limit: 1})
	assert.Equal(t, []string{"b_1"}, ids(got))
}

func TestAggregator_DefaultLimit(t *testing.T) {
	products := make([]marketplace.CanonicalProduct, 0, 25)
	for i := 0; i < 25; i++ {
		products = append(products, item(provA, string(rune('a'+i)), float64(i+1)))
	}
	got := NewAggregator(abPriorities).Aggregate([]marketplace.ProviderSearchResult{ok(provA, products...)},
		marketplace.SearchParams{Query: "x"})
	assert.Len(t, got, marketplace.DefaultLimit)
}

func TestAggregator_Deterministic(t *testing.T) {
	agg := NewAggregator(abPriorities, WithPolicy(PolicyGlobal))
	results := []marketplace.ProviderSearchResult{
		ok(provC, item(provC, "1", 12), item(provC, "2", 12)),
		ok(provA, item(provA, "1", 12), item(provA, "2", 7)),
		ok(provB, item(provB, "1", 12), item(provB, "2", 0)),
	}
	params := marketplace.SearchParams{Query: "x", SortBy: marketplace.SortPriceLow, Limit: 10}

	first := agg.Aggregate(results, params)
	second := agg.Aggregate(results, params)
	require.Equal(t, first, second)
	assert.Equal(t, []string{"a_2", "a_1", "b_1", "c_1", "c_2", "b_2"}, ids(first))
	assert.Equal(t, "c_1", results[0].Products[0].ID, "input must not be reordered")
}

func TestAggregator_EmptyInput(t *testing.T) {
	got := NewAggregator(nil).Aggregate(nil, marketplace.SearchParams{Query: "x"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseRankingPolicy(t *testing.T) {
	for in, want := range map[string]RankingPolicy{
		"":               PolicyPriorityFirst,
		"priority_first": PolicyPriorityFirst,
		"global":         PolicyGlobal,
	} {
		got, err := ParseRankingPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseRankingPolicy("random")
	assert.Error(t, err)
}
