package signal

import (
	"fmt"
	"strings"

	"sigflow/pkg/catalog"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"JPY": "¥",
	"GBP": "£",
	"EUR": "€",
	"CHF": "Fr.",
}

// StopLossValue renders the monetary size of the stop distance using the
// instrument category's pip/point convention: currency pairs scale by a
// notional mini-lot multiplier and report in the quote currency, crypto uses
// a fractional unit size, everything else is a direct price difference.
func StopLossValue(inst catalog.Instrument, entry, stop float64) string {
	diff := entry - stop
	if diff < 0 {
		diff = -diff
	}

	switch inst.Category {
	case catalog.CategoryForex:
		value := diff * 1000
		quote := quoteCurrency(inst.Symbol)
		symbol, ok := currencySymbols[quote]
		if !ok {
			symbol = quote + " "
		}
		return fmt.Sprintf("(%s%s)", symbol, formatMoney(value))
	case catalog.CategoryCrypto:
		return fmt.Sprintf("(~$%s)", formatMoney(diff*0.01))
	default:
		return fmt.Sprintf("(~$%s)", formatMoney(diff))
	}
}

// quoteCurrency extracts the quote leg from a six-letter pair symbol like
// "EURUSD=X".
func quoteCurrency(symbol string) string {
	pair := strings.TrimSuffix(symbol, "=X")
	if len(pair) != 6 {
		return ""
	}
	return pair[3:]
}

// formatMoney renders a value with two decimals and thousands separators.
func formatMoney(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
