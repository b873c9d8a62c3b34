package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoriesStableOrder(t *testing.T) {
	cats := Categories()
	require.Equal(t, []Category{CategoryForex, CategoryCrypto, CategoryStocks, CategoryIndices}, cats)
}

func TestInstrumentsCarryCategory(t *testing.T) {
	for _, cat := range Categories() {
		instruments := Instruments(cat)
		require.NotEmpty(t, instruments)
		for _, inst := range instruments {
			require.Equal(t, cat, inst.Category)
			require.NotEmpty(t, inst.Symbol)
		}
	}
}

func TestInstrumentsUnknownCategory(t *testing.T) {
	require.Empty(t, Instruments(Category("bonds")))
}

func TestAllInstrumentsSortedUnique(t *testing.T) {
	all := AllInstruments()
	require.NotEmpty(t, all)
	seen := make(map[string]bool)
	prev := ""
	for _, inst := range all {
		require.False(t, seen[inst.Symbol], "duplicate symbol %s", inst.Symbol)
		seen[inst.Symbol] = true
		require.True(t, prev < inst.Symbol, "not sorted at %s", inst.Symbol)
		prev = inst.Symbol
	}
}

func TestLookup(t *testing.T) {
	inst, ok := Lookup("BTC-USD")
	require.True(t, ok)
	require.Equal(t, CategoryCrypto, inst.Category)

	inst, ok = Lookup("^GSPC")
	require.True(t, ok)
	require.Equal(t, CategoryIndices, inst.Category)

	_, ok = Lookup("DOESNOTEXIST")
	require.False(t, ok)
}

func TestResolveTimeframe(t *testing.T) {
	tf, ok := ResolveTimeframe("1h")
	require.True(t, ok)
	require.Equal(t, "1h", tf.Interval)
	require.Equal(t, 120, tf.LookbackDays)

	tf, ok = ResolveTimeframe("1d")
	require.True(t, ok)
	require.Equal(t, 365, tf.LookbackDays)

	_, ok = ResolveTimeframe("15m")
	require.False(t, ok)
}
