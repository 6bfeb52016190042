package search

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DedupConfig controls near-duplicate collapse across providers
type DedupConfig struct {
	Enabled bool
	// TitleSimilarity is the minimum token Jaccard similarity of normalized titles
	TitleSimilarity float64
	// PriceTolerance is the maximum relative price difference, e.g. 0.01 for 1%
	PriceTolerance float64
}

// DefaultDedupConfig returns dedup enabled with a 0.9 title threshold and 1% price tolerance
func DefaultDedupConfig() DedupConfig {
	return DedupConfig{
		Enabled:         true,
		TitleSimilarity: 0.9,
		PriceTolerance:  0.01,
	}
}

// fingerprint is the normalized comparison form of a product
type fingerprint struct {
	tokens map[string]struct{}
	brand  string
	price  float64
}

// collapseDuplicates walks ranked items in order and keeps one instance per
// duplicate group. When a later item duplicates a kept one from another
// provider and has the better priority, it replaces the kept instance in place.
func collapseDuplicates(items []rankedItem, cfg DedupConfig) []rankedItem {
	kept := make([]rankedItem, 0, len(items))
	prints := make([]fingerprint, 0, len(items))

	for _, it := range items {
		fp := newFingerprint(it)
		dup := -1
		for k := range kept {
			if kept[k].product.Provider == it.product.Provider {
				continue
			}
			if isDuplicate(prints[k], fp, cfg) {
				dup = k
				break
			}
		}
		if dup < 0 {
			kept = append(kept, it)
			prints = append(prints, fp)
			continue
		}
		if it.priority < kept[dup].priority {
			kept[dup] = it
			prints[dup] = fp
		}
	}
	return kept
}

func newFingerprint(it rankedItem) fingerprint {
	return fingerprint{
		tokens: tokenSet(NormalizeText(it.product.Title)),
		brand:  NormalizeText(it.product.Brand),
		price:  it.product.Price,
	}
}

func isDuplicate(a, b fingerprint, cfg DedupConfig) bool {
	if len(a.tokens) == 0 || len(b.tokens) == 0 {
		return false
	}
	if a.brand != b.brand {
		return false
	}
	if !pricesClose(a.price, b.price, cfg.PriceTolerance) {
		return false
	}
	return jaccard(a.tokens, b.tokens) >= cfg.TitleSimilarity
}

// pricesClose compares two known prices relative to the larger one.
// Products without a price are never considered equal.
func pricesClose(a, b, tolerance float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	return math.Abs(a-b) <= tolerance*math.Max(a, b)+1e-9
}

// NormalizeText decomposes, strips diacritics, case-folds and replaces
// punctuation with spaces. The result has single spaces between words.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(words, " ")
}

func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
