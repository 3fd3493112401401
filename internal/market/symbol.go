package market

import (
	"net/url"
	"strings"
)

// SplitSymbol splits "BTC-USD" into base "BTC" and quote "USD" on sep.
// A symbol without sep is all base and has an empty quote.
func SplitSymbol(symbol, sep string) (base, quote string) {
	if sep == "" {
		return symbol, ""
	}
	base, quote, found := strings.Cut(symbol, sep)
	if !found {
		return symbol, ""
	}
	return base, quote
}

// ResolveURL substitutes {symbol}, {base} and {quote} in tmpl. Values are
// query-escaped; no other validation is done.
func ResolveURL(tmpl, symbol, sep string) string {
	base, quote := SplitSymbol(symbol, sep)
	r := strings.NewReplacer(
		"{symbol}", url.QueryEscape(symbol),
		"{base}", url.QueryEscape(base),
		"{quote}", url.QueryEscape(quote),
	)
	return r.Replace(tmpl)
}

// SameSymbol reports whether two symbol spellings name the same market.
// Comparison ignores case and treats "-", "/" and "_" as the same separator,
// so "btc/usd" matches "BTC-USD".
func SameSymbol(a, b string) bool {
	return canonical(a) == canonical(b)
}

func canonical(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("/", "-", "_", "-").Replace(s)
}
