package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

func jacket(p marketplace.ProviderID, native, title, brand string, price float64) marketplace.CanonicalProduct {
	pr := item(p, native, price)
	pr.Title = title
	pr.Brand = brand
	return pr
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Café Racer—Jacket!", "cafe racer jacket"},
		{"  Nike   AIR-Max 90 ", "nike air max 90"},
		{"Crème Brûlée", "creme brulee"},
		{"ＮＩＫＥ", "nike"},
		{"Levi's 501", "levi s 501"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestJaccard(t *testing.T) {
	a := tokenSet("vintage denim jacket")
	assert.InDelta(t, 1.0, jaccard(a, tokenSet("jacket denim vintage")), 1e-9)
	assert.InDelta(t, 0.5, jaccard(a, tokenSet("vintage denim coat")), 1e-9)
	assert.InDelta(t, 0.0, jaccard(tokenSet(""), tokenSet("")), 1e-9)
}

func TestPricesClose(t *testing.T) {
	assert.True(t, pricesClose(100, 100.5, 0.01))
	assert.True(t, pricesClose(100, 101, 0.01))
	assert.False(t, pricesClose(100, 102, 0.01))
	assert.False(t, pricesClose(0, 0, 0.01))
	assert.False(t, pricesClose(0, 10, 0.01))
}

func TestAggregator_Dedup(t *testing.T) {
	// b has the better priority
	priorities := StaticPriorities(map[marketplace.ProviderID]int{provA: 2, provB: 1})
	params := marketplace.SearchParams{Query: "jacket", SortBy: marketplace.SortPriceLow, Limit: 10}

	tests := []struct {
		name    string
		policy  RankingPolicy
		dedup   DedupConfig
		results []marketplace.ProviderSearchResult
		want    []string
	}{
		{
			name:   "keeps higher priority instance in place of earlier ranked duplicate",
			policy: PolicyGlobal,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA,
					jacket(provA, "1", "Café Racer Jacket", "Schott", 100),
					jacket(provA, "2", "Wool Scarf", "Acne", 120)),
				ok(provB, jacket(provB, "9", "cafe racer jacket!", "SCHOTT", 100.5)),
			},
			want: []string{"b_9", "a_2"},
		},
		{
			name:   "priority first drops lower priority duplicate",
			policy: PolicyPriorityFirst,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Café Racer Jacket", "Schott", 100)),
				ok(provB, jacket(provB, "9", "Cafe Racer Jacket", "Schott", 100)),
			},
			want: []string{"b_9"},
		},
		{
			name:   "disabled keeps both",
			policy: PolicyPriorityFirst,
			dedup:  DedupConfig{Enabled: false},
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Café Racer Jacket", "Schott", 100)),
				ok(provB, jacket(provB, "9", "Cafe Racer Jacket", "Schott", 100)),
			},
			want: []string{"b_9", "a_1"},
		},
		{
			name:   "same provider duplicates are kept",
			policy: PolicyPriorityFirst,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA,
					jacket(provA, "1", "Café Racer Jacket", "Schott", 100),
					jacket(provA, "2", "Café Racer Jacket", "Schott", 100)),
			},
			want: []string{"a_1", "a_2"},
		},
		{
			name:   "different brands are kept",
			policy: PolicyPriorityFirst,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Café Racer Jacket", "Schott", 100)),
				ok(provB, jacket(provB, "9", "Café Racer Jacket", "Belstaff", 100)),
			},
			want: []string{"b_9", "a_1"},
		},
		{
			name:   "missing brand on one side is kept",
			policy: PolicyPriorityFirst,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Café Racer Jacket", "", 100)),
				ok(provB, jacket(provB, "9", "Café Racer Jacket", "Schott", 100)),
			},
			want: []string{"b_9", "a_1"},
		},
		{
			name:   "missing brand on both sides matches",
			policy: PolicyPriorityFirst,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Café Racer Jacket", "", 100)),
				ok(provB, jacket(provB, "9", "Café Racer Jacket", "", 100)),
			},
			want: []string{"b_9"},
		},
		{
			name:   "prices outside tolerance are kept",
			policy: PolicyPriorityFirst,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Café Racer Jacket", "Schott", 100)),
				ok(provB, jacket(provB, "9", "Café Racer Jacket", "Schott", 110)),
			},
			want: []string{"b_9", "a_1"},
		},
		{
			name:   "unknown prices are kept",
			policy: PolicyPriorityFirst,
			dedup:  DefaultDedupConfig(),
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Café Racer Jacket", "Schott", 0)),
				ok(provB, jacket(provB, "9", "Café Racer Jacket", "Schott", 0)),
			},
			want: []string{"b_9", "a_1"},
		},
		{
			name:   "lower similarity threshold collapses near titles",
			policy: PolicyPriorityFirst,
			dedup:  DedupConfig{Enabled: true, TitleSimilarity: 0.6, PriceTolerance: 0.01},
			results: []marketplace.ProviderSearchResult{
				ok(provA, jacket(provA, "1", "Schott Perfecto Leather Jacket Black", "", 300)),
				ok(provB, jacket(provB, "9", "Schott Perfecto Leather Jacket", "", 300)),
			},
			want: []string{"b_9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(priorities, WithPolicy(tt.policy), WithDedup(tt.dedup))
			assert.Equal(t, tt.want, ids(agg.Aggregate(tt.results, params)))
		})
	}
}
