// Package catalog holds the static instrument universe scanned by the data
// pipeline and served to consumers. The catalog never mutates at runtime.
package catalog

import "sort"

// Category tags an instrument with its asset class. The category decides which
// fallback provider mapping applies when the primary source has no data.
type Category string

const (
	CategoryForex   Category = "forex"
	CategoryCrypto  Category = "crypto"
	CategoryStocks  Category = "stocks"
	CategoryIndices Category = "indices"
)

// Instrument is a tradable symbol plus its asset class.
type Instrument struct {
	Symbol   string
	Category Category
}

// Timeframe names a sampling interval together with the historical lookback
// requested when fetching it.
type Timeframe struct {
	Name         string
	Interval     string
	LookbackDays int
}

var categoryOrder = []Category{CategoryForex, CategoryCrypto, CategoryStocks, CategoryIndices}

var instrumentsByCategory = map[Category][]string{
	CategoryForex: {
		// Majors
		"EURUSD=X", "GBPUSD=X", "USDJPY=X", "USDCHF=X", "USDCAD=X", "AUDUSD=X", "NZDUSD=X",
		// Minors / crosses
		"EURJPY=X", "GBPJPY=X", "EURGBP=X", "AUDCAD=X", "AUDJPY=X", "AUDNZD=X", "CADCHF=X",
		"CADJPY=X", "CHFJPY=X", "EURAUD=X", "EURCAD=X", "EURCHF=X", "EURNZD=X", "GBPAUD=X",
		"GBPCAD=X", "GBPCHF=X", "GBPNZD=X", "NZDCAD=X", "NZDJPY=X",
		// Exotics
		"USDZAR=X", "USDMXN=X", "USDTRY=X", "USDSGD=X", "USDNOK=X", "USDSEK=X", "USDHKD=X",
	},
	CategoryCrypto: {
		"BTC-USD", "ETH-USD", "BNB-USD", "XRP-USD", "ADA-USD", "SOL-USD", "DOGE-USD",
		"DOT-USD", "AVAX-USD", "MATIC-USD", "LINK-USD", "LTC-USD", "TRX-USD", "SHIB-USD",
	},
	CategoryStocks: {
		"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "NFLX",
		"JPM", "V", "PYPL", "DIS", "BABA", "BA",
	},
	CategoryIndices: {
		"^GSPC", "^DJI", "^IXIC", "^RUT", "^VIX", "^FTSE", "^GDAXI",
		"^FCHI", "^N225", "^HSI", "^STOXX50E",
	},
}

// Indicators need warm-up history, so lookbacks fetch more bars than the
// feature windows strictly require.
var timeframes = []Timeframe{
	{Name: "1h", Interval: "1h", LookbackDays: 120},
	{Name: "4h", Interval: "4h", LookbackDays: 120},
	{Name: "1d", Interval: "1d", LookbackDays: 365},
}

// Categories returns all asset categories in stable order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Instruments returns the instruments of a category in declaration order.
// Unknown categories yield an empty slice.
func Instruments(cat Category) []Instrument {
	symbols := instrumentsByCategory[cat]
	out := make([]Instrument, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, Instrument{Symbol: s, Category: cat})
	}
	return out
}

// AllInstruments returns every instrument across categories, deduplicated and
// sorted by symbol.
func AllInstruments() []Instrument {
	seen := make(map[string]bool)
	var out []Instrument
	for _, cat := range categoryOrder {
		for _, inst := range Instruments(cat) {
			if seen[inst.Symbol] {
				continue
			}
			seen[inst.Symbol] = true
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Lookup finds an instrument by symbol.
func Lookup(symbol string) (Instrument, bool) {
	for _, cat := range categoryOrder {
		for _, s := range instrumentsByCategory[cat] {
			if s == symbol {
				return Instrument{Symbol: s, Category: cat}, true
			}
		}
	}
	return Instrument{}, false
}

// Timeframes returns the fetch matrix timeframes in stable order.
func Timeframes() []Timeframe {
	out := make([]Timeframe, len(timeframes))
	copy(out, timeframes)
	return out
}

// ResolveTimeframe resolves fetch parameters for a timeframe name.
func ResolveTimeframe(name string) (Timeframe, bool) {
	for _, tf := range timeframes {
		if tf.Name == name {
			return tf, true
		}
	}
	return Timeframe{}, false
}
