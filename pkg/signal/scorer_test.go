package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sigflow/pkg/catalog"
	"sigflow/pkg/features"
	"sigflow/pkg/market"
	"sigflow/pkg/ml"
)

var scorerSchema = []string{
	"rsi_14",
	"atr_14",
	"volume_ratio",
	"price_vs_ema200",
	"hour_of_day",
	"trade_type_encoded",
}

// hypothesisModel answers with a fixed probability per hypothesis flag read
// back out of the scored row.
type hypothesisModel struct {
	flagIdx  int
	longProb float64
	shortProb     float64
	err      error
}

func (m *hypothesisModel) PredictProba(row []float64) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if row[m.flagIdx] == 0 {
		return m.longProb, nil
	}
	return m.shortProb, nil
}

func (m *hypothesisModel) Close() {}

func identityScaler(columns int) *ml.Scaler {
	mean := make([]float64, columns)
	scale := make([]float64, columns)
	for i := range scale {
		scale[i] = 1
	}
	return &ml.Scaler{Mean: mean, Scale: scale}
}

func newTestScorer(buyProb, sellProb float64) *Scorer {
	return NewScorer(&ml.Artifacts{
		Model: &hypothesisModel{
			flagIdx:  len(scorerSchema) - 1,
			longProb: buyProb,
			shortProb:     sellProb,
		},
		Scaler: identityScaler(len(scorerSchema)),
		Schema: scorerSchema,
	})
}

func scoringSeries(n int) market.Series {
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	out := make(market.Series, n)
	for i := range out {
		px := 200.0 + float64(i)
		out[i] = market.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   px,
			High:   px + 2,
			Low:    px - 2,
			Close:  px,
			Volume: 500,
		}
	}
	return out
}

func mustInstrument(t *testing.T, symbol string) catalog.Instrument {
	t.Helper()
	inst, ok := catalog.Lookup(symbol)
	require.True(t, ok)
	return inst
}

func TestScoreBuySignal(t *testing.T) {
	scorer := newTestScorer(0.72, 0.30)
	series := scoringSeries(40)
	lastClose := series[len(series)-1].Close

	pred, err := scorer.Score(mustInstrument(t, "AAPL"), series)
	require.NoError(t, err)

	require.Equal(t, SignalBuy, pred.Signal)
	require.InDelta(t, 0.72, pred.Confidence, 1e-9)
	require.InDelta(t, 0.72, pred.BuyProb, 1e-9)
	require.InDelta(t, 0.30, pred.SellProb, 1e-9)
	require.InDelta(t, lastClose, pred.LatestPrice, 1e-9)
	require.InDelta(t, lastClose*0.99, pred.StopLoss, 1e-9)
	require.InDelta(t, lastClose*1.02, pred.TakeProfit, 1e-9)
	require.NotEmpty(t, pred.StopValue)
	require.False(t, pred.Timestamp.IsZero())
}

func TestScoreSellSignal(t *testing.T) {
	scorer := newTestScorer(0.20, 0.81)
	series := scoringSeries(40)
	lastClose := series[len(series)-1].Close

	pred, err := scorer.Score(mustInstrument(t, "BTC-USD"), series)
	require.NoError(t, err)

	require.Equal(t, SignalSell, pred.Signal)
	require.InDelta(t, 0.81, pred.Confidence, 1e-9)
	require.InDelta(t, lastClose*1.01, pred.StopLoss, 1e-9)
	require.InDelta(t, lastClose*0.98, pred.TakeProfit, 1e-9)
	require.NotEmpty(t, pred.StopValue)
}

func TestScoreThresholdIsStrict(t *testing.T) {
	// Exactly at the threshold must hold; one point above must fire.
	scorer := newTestScorer(ConfidenceThreshold, 0.10)
	pred, err := scorer.Score(mustInstrument(t, "AAPL"), scoringSeries(40))
	require.NoError(t, err)
	require.Equal(t, SignalHold, pred.Signal)
	require.Zero(t, pred.Confidence)
	require.Zero(t, pred.StopLoss)
	require.Zero(t, pred.TakeProfit)
	require.Empty(t, pred.StopValue)

	scorer = newTestScorer(0.56, 0.10)
	pred, err = scorer.Score(mustInstrument(t, "AAPL"), scoringSeries(40))
	require.NoError(t, err)
	require.Equal(t, SignalBuy, pred.Signal)
	require.InDelta(t, 0.56, pred.Confidence, 1e-9)
}

func TestScoreTiedHypothesesHold(t *testing.T) {
	scorer := newTestScorer(0.70, 0.70)
	pred, err := scorer.Score(mustInstrument(t, "AAPL"), scoringSeries(40))
	require.NoError(t, err)
	require.Equal(t, SignalHold, pred.Signal)
}

func TestScoreNotReady(t *testing.T) {
	scorer := NewScorer(&ml.Artifacts{})
	_, err := scorer.Score(mustInstrument(t, "AAPL"), scoringSeries(40))
	require.ErrorIs(t, err, ErrNotReady)
}

func TestScoreInsufficientData(t *testing.T) {
	scorer := newTestScorer(0.9, 0.1)
	_, err := scorer.Score(mustInstrument(t, "AAPL"), scoringSeries(features.MinBars-1))
	require.ErrorIs(t, err, features.ErrInsufficientData)
}

func TestScoreSchemaMissingHypothesisFlag(t *testing.T) {
	schema := []string{"rsi_14", "atr_14"}
	scorer := NewScorer(&ml.Artifacts{
		Model:  &hypothesisModel{flagIdx: 0},
		Scaler: identityScaler(len(schema)),
		Schema: schema,
	})
	_, err := scorer.Score(mustInstrument(t, "AAPL"), scoringSeries(40))
	require.ErrorContains(t, err, "trade_type_encoded")
}

func TestScoreModelErrorPropagates(t *testing.T) {
	boom := errors.New("session lost")
	scorer := NewScorer(&ml.Artifacts{
		Model:  &hypothesisModel{flagIdx: len(scorerSchema) - 1, err: boom},
		Scaler: identityScaler(len(scorerSchema)),
		Schema: scorerSchema,
	})
	_, err := scorer.Score(mustInstrument(t, "AAPL"), scoringSeries(40))
	require.ErrorIs(t, err, boom)
}
