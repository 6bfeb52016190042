package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

// RankingPolicy selects how merged products are ordered
type RankingPolicy string

const (
	// PolicyPriorityFirst orders by provider priority, then by the sort key
	// within each provider
	PolicyPriorityFirst RankingPolicy = "priority_first"
	// PolicyGlobal orders price sorts across providers; priority breaks ties
	PolicyGlobal RankingPolicy = "global"
)

// ParseRankingPolicy converts a config value to a RankingPolicy.
// An empty string yields PolicyPriorityFirst.
func ParseRankingPolicy(s string) (RankingPolicy, error) {
	switch RankingPolicy(s) {
	case "", PolicyPriorityFirst:
		return PolicyPriorityFirst, nil
	case PolicyGlobal:
		return PolicyGlobal, nil
	default:
		return "", fmt.Errorf("unknown ranking policy %q", s)
	}
}

// PriorityFunc returns the ranking priority of a provider; lower is preferred
type PriorityFunc func(id marketplace.ProviderID) int

// RegistryPriorities reads priorities from a provider registry. Unknown
// providers rank after every known one.
func RegistryPriorities(registry marketplace.ProviderRegistry) PriorityFunc {
	return func(id marketplace.ProviderID) int {
		cfg, err := registry.GetConfig(id)
		if err != nil {
			return math.MaxInt
		}
		return cfg.Priority
	}
}

// StaticPriorities serves priorities from a fixed map
func StaticPriorities(m map[marketplace.ProviderID]int) PriorityFunc {
	return func(id marketplace.ProviderID) int {
		if p, ok := m[id]; ok {
			return p
		}
		return math.MaxInt
	}
}

// Aggregator merges per-provider results into one ranked list.
// Aggregate performs no I/O and is deterministic for identical inputs.
type Aggregator struct {
	policy   RankingPolicy
	priority PriorityFunc
	dedup    DedupConfig
}

// AggregatorOption configures an Aggregator
type AggregatorOption func(*Aggregator)

// WithPolicy sets the ranking policy
func WithPolicy(p RankingPolicy) AggregatorOption {
	return func(a *Aggregator) {
		a.policy = p
	}
}

// WithDedup sets the near-duplicate collapse configuration
func WithDedup(cfg DedupConfig) AggregatorOption {
	return func(a *Aggregator) {
		a.dedup = cfg
	}
}

// NewAggregator creates an Aggregator with the priority_first policy and
// default dedup settings unless overridden.
func NewAggregator(priority PriorityFunc, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		policy:   PolicyPriorityFirst,
		priority: priority,
		dedup:    DefaultDedupConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.priority == nil {
		a.priority = func(marketplace.ProviderID) int { return 0 }
	}
	return a
}

// Policy returns the configured ranking policy
func (a *Aggregator) Policy() RankingPolicy {
	return a.policy
}

// rankedItem carries the sort keys of one product
type rankedItem struct {
	product  marketplace.CanonicalProduct
	priority int
	source   int // index of the result in the input
	position int // index within the provider's own list
}

// Aggregate ranks the products of successful results, collapses
// cross-provider duplicates and truncates to params.Limit.
func (a *Aggregator) Aggregate(results []marketplace.ProviderSearchResult, params marketplace.SearchParams) []marketplace.CanonicalProduct {
	params = params.WithDefaults()

	items := make([]rankedItem, 0)
	for i, r := range results {
		if !r.Success {
			continue
		}
		prio := a.priority(r.Provider)
		for j, p := range r.Products {
			items = append(items, rankedItem{product: p, priority: prio, source: i, position: j})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return a.less(items[i], items[j], params.SortBy)
	})

	if a.dedup.Enabled {
		items = collapseDuplicates(items, a.dedup)
	}

	if len(items) > params.Limit {
		items = items[:params.Limit]
	}

	out := make([]marketplace.CanonicalProduct, len(items))
	for i, it := range items {
		out[i] = it.product
	}
	return out
}

func (a *Aggregator) less(x, y rankedItem, sortBy marketplace.SortOption) bool {
	if a.policy == PolicyGlobal && sortBy.IsPriceSort() {
		if c := comparePrice(x.product.Price, y.product.Price, sortBy); c != 0 {
			return c < 0
		}
		return compareOrigin(x, y) < 0
	}

	if x.priority != y.priority {
		return x.priority < y.priority
	}
	if sortBy.IsPriceSort() {
		if c := comparePrice(x.product.Price, y.product.Price, sortBy); c != 0 {
			return c < 0
		}
	}
	return compareOrigin(x, y) < 0
}

// compareOrigin orders by priority, then input order
func compareOrigin(x, y rankedItem) int {
	switch {
	case x.priority != y.priority:
		return cmpInt(x.priority, y.priority)
	case x.source != y.source:
		return cmpInt(x.source, y.source)
	default:
		return cmpInt(x.position, y.position)
	}
}

// comparePrice orders by the sort direction; unknown prices (0) sort last
// in both directions.
func comparePrice(x, y float64, sortBy marketplace.SortOption) int {
	xUnknown, yUnknown := x <= 0, y <= 0
	switch {
	case xUnknown && yUnknown:
		return 0
	case xUnknown:
		return 1
	case yUnknown:
		return -1
	}
	c := 0
	if x < y {
		c = -1
	} else if x > y {
		c = 1
	}
	if sortBy == marketplace.SortPriceHigh {
		c = -c
	}
	return c
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
