// Package query turns free-text shopping intents into canonical search params.
package query

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

const amount = `\$?\s*(\d+(?:\.\d{1,2})?)\s*(?:dollars|usd|bucks)?`

var (
	betweenPattern = regexp.MustCompile(`(?i)\b(?:between|from)\s+` + amount + `\s+(?:and|to|-)\s+` + amount)
	rangePattern   = regexp.MustCompile(`\$\s*(\d+(?:\.\d{1,2})?)\s*-\s*\$?\s*(\d+(?:\.\d{1,2})?)`)
	maxPattern     = regexp.MustCompile(`(?i)\b(?:under|below|less\s+than|cheaper\s+than|max(?:imum)?|up\s+to)\s*` + amount)
	minPattern     = regexp.MustCompile(`(?i)\b(?:over|above|more\s+than|at\s+least|min(?:imum)?)\s*` + amount)
	sizePattern    = regexp.MustCompile(`(?i)\bsize\s+([a-z0-9.]+)\b`)
)

// sortHints maps phrases to sort options, checked in order
var sortHints = []struct {
	pattern *regexp.Regexp
	sort    marketplace.SortOption
}{
	{regexp.MustCompile(`(?i)\b(?:most\s+expensive|highest\s+price)\b`), marketplace.SortPriceHigh},
	{regexp.MustCompile(`(?i)\b(?:cheapest|lowest\s+price)\b`), marketplace.SortPriceLow},
	{regexp.MustCompile(`(?i)\b(?:best|top|highest)\s+rated\b`), marketplace.SortRating},
	{regexp.MustCompile(`(?i)\b(?:newest|latest|new\s+arrivals)\b`), marketplace.SortNewest},
}

var colors = map[string]struct{}{
	"black": {}, "white": {}, "red": {}, "blue": {}, "green": {}, "yellow": {},
	"pink": {}, "purple": {}, "orange": {}, "brown": {}, "grey": {}, "gray": {},
	"beige": {}, "navy": {}, "cream": {}, "olive": {}, "tan": {}, "burgundy": {},
}

var sizes = map[string]string{
	"xxs": "XXS", "xs": "XS", "xl": "XL", "xxl": "XXL", "xxxl": "XXXL",
}

// fillers are dropped from the remaining query
var fillers = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "for": {}, "me": {}, "i": {}, "want": {},
	"find": {}, "show": {}, "looking": {}, "need": {}, "some": {}, "please": {},
}

// Formulator extracts structured filters from a free-text intent
type Formulator struct {
	logger *zap.Logger
}

// NewFormulator creates a Formulator
func NewFormulator(logger *zap.Logger) *Formulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formulator{logger: logger}
}

// FromText builds validated SearchParams from text. Price bounds, sort hints,
// a color and a size are lifted out; the remaining words become the query.
func (f *Formulator) FromText(text string) (marketplace.SearchParams, error) {
	params := marketplace.SearchParams{}
	rest := " " + strings.TrimSpace(text) + " "

	if m := betweenPattern.FindStringSubmatch(rest); m != nil {
		params.MinPrice, params.MaxPrice = parseAmount(m[1]), parseAmount(m[2])
		rest = strings.Replace(rest, m[0], " ", 1)
	} else if m := rangePattern.FindStringSubmatch(rest); m != nil {
		params.MinPrice, params.MaxPrice = parseAmount(m[1]), parseAmount(m[2])
		rest = strings.Replace(rest, m[0], " ", 1)
	} else {
		if m := maxPattern.FindStringSubmatch(rest); m != nil {
			params.MaxPrice = parseAmount(m[1])
			rest = strings.Replace(rest, m[0], " ", 1)
		}
		if m := minPattern.FindStringSubmatch(rest); m != nil {
			params.MinPrice = parseAmount(m[1])
			rest = strings.Replace(rest, m[0], " ", 1)
		}
	}

	for _, h := range sortHints {
		if loc := h.pattern.FindStringIndex(rest); loc != nil {
			params.SortBy = h.sort
			rest = rest[:loc[0]] + " " + rest[loc[1]:]
			break
		}
	}

	if m := sizePattern.FindStringSubmatch(rest); m != nil {
		params.Size = strings.ToUpper(m[1])
		rest = strings.Replace(rest, m[0], " ", 1)
	}

	words := make([]string, 0)
	for _, w := range strings.Fields(rest) {
		key := strings.ToLower(strings.Trim(w, ",.!?"))
		if _, ok := colors[key]; ok && params.Color == "" {
			params.Color = key
			words = append(words, w)
			continue
		}
		if s, ok := sizes[key]; ok && params.Size == "" {
			params.Size = s
			continue
		}
		if _, ok := fillers[key]; ok {
			continue
		}
		words = append(words, strings.Trim(w, ",.!?"))
	}
	params.Query = strings.Join(words, " ")

	// "between 30 and 10" means the same range as "between 10 and 30"
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		params.MinPrice, params.MaxPrice = params.MaxPrice, params.MinPrice
	}

	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return marketplace.SearchParams{}, err
	}

	f.logger.Debug("Formulated search params",
		zap.String("text", text),
		zap.String("query", params.Query),
		zap.String("sort", string(params.SortBy)),
	)
	return params, nil
}

func parseAmount(s string) *float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}
