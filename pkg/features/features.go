// Package features derives the fixed-schema feature vector the scoring model
// consumes from a raw OHLCV series. The synthesis is deterministic: the same
// series and schema always produce the same vector.
package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"sigflow/pkg/market"
)

// MinBars is the minimum series length the synthesizer accepts.
const MinBars = 20

const (
	rsiPeriod       = 14
	emaPeriod       = 200
	atrPeriod       = 14
	volumeSMAPeriod = 20
	histDevSlots    = 24
)

// ErrInsufficientData is returned when the series is too short to synthesize.
var ErrInsufficientData = errors.New("features: insufficient data")

// Vector is one ordered feature row. Names is always exactly the schema the
// vector was synthesized against; Close carries the last close for context.
type Vector struct {
	Names  []string
	Values []float64
	Close  float64
}

// Value returns the named feature.
func (v *Vector) Value(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// featureDefaults backs the default-table lookup for schema names the
// synthesizer cannot compute from price alone. Names absent from the table
// default to zero.
var featureDefaults = map[string]float64{}

func defaultValue(name string) float64 {
	if v, ok := featureDefaults[name]; ok {
		return v
	}
	return 0
}

// Synthesize computes the feature vector for the last row of the series
// against the supplied ordered schema. Every schema name is always present in
// the output; names the series cannot produce are filled from the default
// table. Warm-up gaps are forward-filled, then back-filled, then zero-filled,
// in that order.
func Synthesize(series market.Series, schema []string) (*Vector, error) {
	if len(schema) == 0 {
		return nil, fmt.Errorf("features: schema must not be empty")
	}
	normalized := series.Normalize()
	if len(normalized) < MinBars {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(normalized), MinBars)
	}

	frame := buildFrame(normalized)
	for name, col := range frame {
		frame[name] = fillColumn(col)
	}

	last := len(normalized) - 1
	values := make([]float64, len(schema))
	for i, name := range schema {
		if col, ok := frame[name]; ok {
			values[i] = col[last]
		} else {
			values[i] = defaultValue(name)
		}
	}

	names := make([]string, len(schema))
	copy(names, schema)
	return &Vector{
		Names:  names,
		Values: values,
		Close:  normalized[last].Close,
	}, nil
}

// buildFrame computes every feature column the synthesizer knows how to
// derive. Columns not computable from price alone hold fixed placeholder
// values reserved for their schema slots.
func buildFrame(series market.Series) map[string][]float64 {
	n := len(series)
	closes := series.Closes()
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range series {
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	rsi := warmupNaN(talib.Rsi(closes, rsiPeriod), rsiPeriod, n)
	ema := emaOrNaN(closes, emaPeriod)
	atr := warmupNaN(talib.Atr(highs, lows, closes, atrPeriod), atrPeriod, n)
	volSMA := warmupNaN(talib.Sma(volumes, volumeSMAPeriod), volumeSMAPeriod-1, n)

	frame := map[string][]float64{
		"rsi_14": rsi,
		"atr_14": atr,
	}

	priceVsEMA := make([]float64, n)
	priceAboveEMA := make([]float64, n)
	for i := range closes {
		if math.IsNaN(ema[i]) || ema[i] == 0 {
			priceVsEMA[i] = math.NaN()
			priceAboveEMA[i] = math.NaN()
			continue
		}
		priceVsEMA[i] = closes[i] / ema[i]
		priceAboveEMA[i] = boolFeature(closes[i] > ema[i])
	}
	frame["price_vs_ema200"] = priceVsEMA
	frame["price_above_ema"] = priceAboveEMA

	volumeRatio := make([]float64, n)
	for i := range volumes {
		if math.IsNaN(volSMA[i]) || volSMA[i] == 0 {
			volumeRatio[i] = math.NaN()
			continue
		}
		volumeRatio[i] = volumes[i] / volSMA[i]
	}
	frame["volume_ratio"] = volumeRatio

	interaction := make([]float64, n)
	overbought := make([]float64, n)
	oversold := make([]float64, n)
	for i := range rsi {
		if math.IsNaN(rsi[i]) {
			interaction[i] = math.NaN()
			overbought[i] = math.NaN()
			oversold[i] = math.NaN()
			continue
		}
		overbought[i] = boolFeature(rsi[i] > 70)
		oversold[i] = boolFeature(rsi[i] < 30)
		if math.IsNaN(volumeRatio[i]) {
			interaction[i] = math.NaN()
		} else {
			interaction[i] = volumeRatio[i] * rsi[i]
		}
	}
	frame["volume_rsi_interaction"] = interaction
	frame["rsi_overbought"] = overbought
	frame["rsi_oversold"] = oversold

	hour := make([]float64, n)
	day := make([]float64, n)
	month := make([]float64, n)
	quarter := make([]float64, n)
	weekend := make([]float64, n)
	for i, b := range series {
		ts := b.Time.UTC()
		hour[i] = float64(ts.Hour())
		// Monday=0 convention, matching the trained model's encoding.
		day[i] = float64((int(ts.Weekday()) + 6) % 7)
		month[i] = float64(ts.Month())
		quarter[i] = float64((int(ts.Month())-1)/3 + 1)
		weekend[i] = boolFeature(ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday)
	}
	frame["hour_of_day"] = hour
	frame["day_of_week"] = day
	frame["month"] = month
	frame["quarter"] = quarter
	frame["is_weekend"] = weekend

	// Channel and trade-shape slots are not computable from price alone;
	// the model was trained with these fixed values for live scoring.
	frame["channel_slope"] = constant(n, 0)
	frame["channel_width_atr"] = constant(n, 1)
	frame["bars_outside_zone"] = constant(n, 0)
	frame["breakout_distance_norm"] = constant(n, 0)
	frame["breakout_candle_body_ratio"] = constant(n, 0.5)
	frame["breakout_strength"] = constant(n, 0)
	frame["channel_efficiency"] = constant(n, 0)
	frame["risk_reward_ratio"] = constant(n, 2.0)
	frame["stop_loss_in_atrs"] = constant(n, 1.5)
	frame["entry_pos_in_channel_norm"] = constant(n, 0.5)
	frame["high_risk_trade"] = constant(n, 0)
	frame["trade_type_encoded"] = constant(n, 0)
	for i := 0; i < histDevSlots; i++ {
		frame[fmt.Sprintf("hist_close_channel_dev_t_minus_%d", i)] = constant(n, 0)
	}

	return frame
}

// fillColumn resolves NaN gaps with strict precedence: forward-fill from the
// previous value, back-fill from the next, then zero.
func fillColumn(col []float64) []float64 {
	out := make([]float64, len(col))
	copy(out, col)
	for i := 1; i < len(out); i++ {
		if math.IsNaN(out[i]) && !math.IsNaN(out[i-1]) {
			out[i] = out[i-1]
		}
	}
	for i := len(out) - 2; i >= 0; i-- {
		if math.IsNaN(out[i]) && !math.IsNaN(out[i+1]) {
			out[i] = out[i+1]
		}
	}
	for i := range out {
		if math.IsNaN(out[i]) {
			out[i] = 0
		}
	}
	return out
}

// warmupNaN marks the indicator's warm-up region as NaN so the fill pass
// treats it as missing rather than as a real zero.
func warmupNaN(col []float64, warmup, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < warmup || i >= len(col) {
			out[i] = math.NaN()
		} else {
			out[i] = col[i]
		}
	}
	return out
}

// emaOrNaN computes the long-window EMA, or an all-NaN column when the series
// is shorter than the window.
func emaOrNaN(closes []float64, period int) []float64 {
	n := len(closes)
	if n < period {
		out := make([]float64, n)
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	return warmupNaN(talib.Ema(closes, period), period-1, n)
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
