package cache

import "strings"

// Symbols contain characters that are hostile or ambiguous in filenames
// ("^GSPC", "EURUSD=X"). Each one is substituted with a marker token that no
// catalog symbol contains, so sanitization is reversible: RestoreSymbol is the
// exact inverse of SanitizeSymbol.
var symbolReplacer = []struct {
	raw   string
	token string
}{
	{"^", "INDEX_"},
	{"=", "_EQ_"},
	{"/", "_SLASH_"},
}

// SanitizeSymbol converts an instrument identifier into a storage-safe key.
func SanitizeSymbol(symbol string) string {
	out := symbol
	for _, r := range symbolReplacer {
		out = strings.ReplaceAll(out, r.raw, r.token)
	}
	return out
}

// RestoreSymbol recovers the original identifier from a stored key.
func RestoreSymbol(key string) string {
	out := key
	for i := len(symbolReplacer) - 1; i >= 0; i-- {
		r := symbolReplacer[i]
		out = strings.ReplaceAll(out, r.token, r.raw)
	}
	return out
}
