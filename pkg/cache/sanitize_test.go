package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sigflow/pkg/catalog"
)

func TestSanitizeRoundTripsEveryCatalogSymbol(t *testing.T) {
	for _, inst := range catalog.AllInstruments() {
		key := SanitizeSymbol(inst.Symbol)
		require.NotContains(t, key, "^")
		require.NotContains(t, key, "=")
		require.NotContains(t, key, "/")
		require.Equal(t, inst.Symbol, RestoreSymbol(key), "round trip for %s", inst.Symbol)
	}
}

func TestSanitizeKnownForms(t *testing.T) {
	tests := []struct {
		symbol string
		key    string
	}{
		{"^GSPC", "INDEX_GSPC"},
		{"EURUSD=X", "EURUSD_EQ_X"},
		{"BTC-USD", "BTC-USD"},
		{"AAPL", "AAPL"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.key, SanitizeSymbol(tt.symbol))
		require.Equal(t, tt.symbol, RestoreSymbol(tt.key))
	}
}

func TestSanitizeDistinctSymbolsStayDistinct(t *testing.T) {
	seen := make(map[string]string)
	for _, inst := range catalog.AllInstruments() {
		key := SanitizeSymbol(inst.Symbol)
		prev, dup := seen[key]
		require.False(t, dup, "symbols %s and %s collide on key %s", prev, inst.Symbol, key)
		seen[key] = inst.Symbol
	}
}

func TestSanitizedKeysAreFilenameSafe(t *testing.T) {
	for _, inst := range catalog.AllInstruments() {
		key := SanitizeSymbol(inst.Symbol)
		require.False(t, strings.ContainsAny(key, `/\:*?"<>|`), "key %s not filename safe", key)
	}
}
