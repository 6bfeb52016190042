package ecommerce

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// wrapperKeys are the conventional keys under which providers nest result lists
var wrapperKeys = []string{"data", "results", "items", "products", "listings", "hits"}

// productKeys mark an object as a single product record
var productKeys = []string{"id", "title", "name", "listing_id", "item_id", "itemId"}

// extractItems normalizes the three accepted payload shapes to a list:
// a bare array, an object wrapping the list under a conventional key
// (one nested level is followed), or a single product object.
// Provider-specific paths are tried before the conventional keys.
func extractItems(body []byte, paths ...string) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", marketplace.ErrMalformedResponse)
	}
	root := gjson.ParseBytes(body)

	if root.IsArray() {
		return root.Array(), nil
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: unexpected top-level %s", marketplace.ErrMalformedResponse, root.Type)
	}

	for _, p := range paths {
		if r := root.Get(p); r.IsArray() {
			return r.Array(), nil
		}
	}

	for _, key := range wrapperKeys {
		r := root.Get(key)
		if r.IsArray() {
			return r.Array(), nil
		}
		if !r.IsObject() {
			continue
		}
		for _, inner := range wrapperKeys {
			if nested := r.Get(inner); nested.IsArray() {
				return nested.Array(), nil
			}
		}
		if looksLikeProduct(r) {
			return []gjson.Result{r}, nil
		}
	}

	if looksLikeProduct(root) {
		return []gjson.Result{root}, nil
	}
	return []gjson.Result{}, nil
}

func looksLikeProduct(r gjson.Result) bool {
	for _, k := range productKeys {
		if r.Get(k).Exists() {
			return true
		}
	}
	return false
}

// firstString returns the first non-empty string found at any of the paths
func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := r.Get(p)
		if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// firstResult returns the first existing, non-null value at any of the paths
func firstResult(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// optionalFloat returns a pointer to the numeric value at path, or nil
func optionalFloat(r gjson.Result, paths ...string) *float64 {
	v := firstResult(r, paths...)
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		if !priceToken.MatchString(v.String()) {
			return nil
		}
		f := ParsePrice(v.String())
		return &f
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Prices
// ---------------------------------------------------------------------------

var priceToken = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)

// ParsePrice extracts the first number from a free-form price string.
// Both "1,234.50" and "1.234,50" read as 1234.5; "23,74 €" reads as 23.74.
// Anything unparseable yields 0.
func ParsePrice(raw string) float64 {
	tok := priceToken.FindString(raw)
	if tok == "" {
		return 0
	}
	d, err := decimal.NewFromString(normalizeSeparators(tok))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// normalizeSeparators rewrites a numeric token to use '.' as the only decimal mark
func normalizeSeparators(tok string) string {
	lastDot := strings.LastIndex(tok, ".")
	lastComma := strings.LastIndex(tok, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Whichever separator comes last is the decimal mark
		if lastComma > lastDot {
			tok = strings.ReplaceAll(tok, ".", "")
			return strings.Replace(tok, ",", ".", 1)
		}
		return strings.ReplaceAll(tok, ",", "")
	case lastComma >= 0:
		if strings.Count(tok, ",") == 1 && len(tok)-lastComma-1 <= 2 {
			return strings.Replace(tok, ",", ".", 1)
		}
		return strings.ReplaceAll(tok, ",", "")
	case lastDot >= 0 && strings.Count(tok, ".") > 1:
		return strings.ReplaceAll(tok, ".", "")
	default:
		return tok
	}
}

var isoCurrency = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD|JPY|CHF|SEK|NOK|DKK|PLN|MXN|NZD)\b`)

// currencySymbols is ordered so that prefixed dollar forms win over "$"
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"CA$", "CAD"},
	{"C$", "CAD"},
	{"AU$", "AUD"},
	{"A$", "AUD"},
	{"NZ$", "NZD"},
	{"US$", "USD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

// DetectCurrency returns the ISO code named or symbolized in a price string,
// or "" when none is present.
func DetectCurrency(raw string) string {
	if m := isoCurrency.FindString(strings.ToUpper(raw)); m != "" {
		return m
	}
	for _, cs := range currencySymbols {
		if strings.Contains(raw, cs.symbol) {
			return cs.code
		}
	}
	return ""
}

// priceFrom reads a price that may be a number, a formatted string, or an
// object carrying value and currency fields.
func priceFrom(r gjson.Result) (float64, string) {
	switch r.Type {
	case gjson.Number:
		return clampPrice(r.Float()), ""
	case gjson.String:
		return ParsePrice(r.String()), DetectCurrency(r.String())
	case gjson.JSON:
		if !r.IsObject() {
			return 0, ""
		}
		price, currency := priceFrom(firstResult(r, "value", "amount", "val", "priceAmount", "price", "raw"))
		if code := firstString(r, "currency", "currency_code", "currencyCode", "currencyName"); code != "" {
			currency = strings.ToUpper(code)
		}
		return price, currency
	default:
		return 0, ""
	}
}

func clampPrice(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

// cleanText strips markup from provider descriptions and collapses whitespace
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// absoluteURL prefixes a site-relative path with the provider origin
func absoluteURL(origin, path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "//"):
		return "https:" + path
	default:
		return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(path, "/")
	}
}

// shippingFrom interprets a free-form shipping string such as "Free shipping"
// or "+$4.99 shipping". Returns nil when nothing is known.
func shippingFrom(raw string) *marketplace.Shipping {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.Contains(strings.ToLower(raw), "free") {
		return &marketplace.Shipping{Free: true}
	}
	if !priceToken.MatchString(raw) {
		return nil
	}
	cost := ParsePrice(raw)
	return &marketplace.Shipping{Cost: &cost, Free: cost == 0}
}

// summarize derives a short title from a longer text: first line, cut at a
// word boundary within max runes.
func summarize(s string, max int) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// formatAmount renders a price bound for a provider query string
func formatAmount(f float64) string {
	return decimal.NewFromFloat(f).Round(2).String()
}
