package features

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"sigflow/pkg/market"
)

// IndicatorSummary is a human-oriented snapshot of the latest indicator
// values, served alongside predictions for context.
type IndicatorSummary struct {
	RSI        float64
	RSILabel   string
	EMA200     float64
	TrendLabel string
	ATR        float64
	Close      float64
}

// Summarize computes the latest indicator snapshot for a series.
func Summarize(series market.Series) (*IndicatorSummary, error) {
	normalized := series.Normalize()
	if len(normalized) < MinBars {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(normalized), MinBars)
	}

	n := len(normalized)
	closes := normalized.Closes()
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range normalized {
		highs[i] = b.High
		lows[i] = b.Low
	}

	out := &IndicatorSummary{Close: closes[n-1]}

	rsi := talib.Rsi(closes, rsiPeriod)
	out.RSI = rsi[n-1]
	switch {
	case out.RSI > 70:
		out.RSILabel = "overbought"
	case out.RSI < 30:
		out.RSILabel = "oversold"
	default:
		out.RSILabel = "neutral"
	}

	if n >= emaPeriod {
		ema := talib.Ema(closes, emaPeriod)
		out.EMA200 = ema[n-1]
		if out.Close > out.EMA200 {
			out.TrendLabel = "above trend"
		} else {
			out.TrendLabel = "below trend"
		}
	} else {
		out.TrendLabel = "insufficient history"
	}

	atr := talib.Atr(highs, lows, closes, atrPeriod)
	out.ATR = atr[n-1]

	return out, nil
}
