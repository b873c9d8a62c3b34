package market

import (
	"strings"

	"sigflow/pkg/catalog"
)

// FallbackSymbol rewrites a primary-provider symbol into the secondary
// provider's naming convention for the instrument's category. The second
// return value reports whether the category has a mapping at all.
//
// Crypto pairs swap the quote-asset suffix: "BTC-USD" becomes "BTCUSDT".
// Currency pairs are handled for USD-quoted pairs only, rewritten into the
// settlement-asset convention: "EURUSD=X" becomes "EURUSDT". Pairs quoted in
// anything else (for example "EURGBP=X") have no defined counterpart on the
// secondary venue and stay unmapped, as do equities and indices.
func FallbackSymbol(inst catalog.Instrument) (string, bool) {
	switch inst.Category {
	case catalog.CategoryCrypto:
		base, ok := strings.CutSuffix(inst.Symbol, "-USD")
		if !ok || base == "" {
			return "", false
		}
		return base + "USDT", true
	case catalog.CategoryForex:
		pair, ok := strings.CutSuffix(inst.Symbol, "=X")
		if !ok {
			return "", false
		}
		base, ok := strings.CutSuffix(pair, "USD")
		if !ok || base == "" {
			return "", false
		}
		return base + "USDT", true
	default:
		return "", false
	}
}
