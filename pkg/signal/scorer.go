// Package signal scores a cached series against the trained classifier and
// emits a BUY/SELL/HOLD decision with confidence and derived risk levels.
// Output is purely informational; nothing here places orders.
package signal

import (
	"errors"
	"fmt"
	"time"

	"sigflow/pkg/catalog"
	"sigflow/pkg/features"
	"sigflow/pkg/market"
	"sigflow/pkg/ml"
)

// ConfidenceThreshold gates BUY and SELL. The comparison is strictly greater:
// a probability of exactly 0.55 holds.
const ConfidenceThreshold = 0.55

const (
	stopLossPct   = 0.01
	takeProfitPct = 0.02

	// tradeTypeFeature is the hypothesis flag: 0 scores the long
	// hypothesis, 1 the short one.
	tradeTypeFeature = "trade_type_encoded"
)

// ErrNotReady signals that model artifacts are absent and scoring is
// unavailable. Acquisition and caching are unaffected.
var ErrNotReady = errors.New("signal: model not loaded")

// Signal is the final trade decision.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Prediction is one scoring result. It is computed fresh per call and never
// persisted.
type Prediction struct {
	Signal      Signal    `json:"signal"`
	Confidence  float64   `json:"confidence"`
	BuyProb     float64   `json:"buy_probability"`
	SellProb    float64   `json:"sell_probability"`
	LatestPrice float64   `json:"latest_price"`
	StopLoss    float64   `json:"stop_loss,omitempty"`
	TakeProfit  float64   `json:"take_profit,omitempty"`
	StopValue   string    `json:"stop_loss_value,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Scorer evaluates series against the loaded model artifacts. The artifact
// bundle is read-only shared state; Scorer itself holds no mutable state.
type Scorer struct {
	artifacts *ml.Artifacts
}

// NewScorer builds a scorer over the artifact bundle.
func NewScorer(artifacts *ml.Artifacts) *Scorer {
	return &Scorer{artifacts: artifacts}
}

// Score runs both trading hypotheses over the latest feature row. The same
// market features are scored once with the hypothesis flag at 0 (long) and
// once at 1 (short); each probability is the model's class-1 output for its
// own hypothesis and the two are not constrained to sum to 1.
func (s *Scorer) Score(inst catalog.Instrument, series market.Series) (*Prediction, error) {
	if !s.artifacts.Ready() {
		return nil, ErrNotReady
	}

	vec, err := features.Synthesize(series, s.artifacts.Schema)
	if err != nil {
		if errors.Is(err, features.ErrInsufficientData) {
			return nil, err
		}
		return nil, fmt.Errorf("signal: feature synthesis failed: %w", err)
	}

	flagIdx := -1
	for i, name := range vec.Names {
		if name == tradeTypeFeature {
			flagIdx = i
			break
		}
	}
	if flagIdx == -1 {
		return nil, fmt.Errorf("signal: schema has no %s column", tradeTypeFeature)
	}

	buyProb, err := s.scoreHypothesis(vec.Values, flagIdx, 0)
	if err != nil {
		return nil, err
	}
	sellProb, err := s.scoreHypothesis(vec.Values, flagIdx, 1)
	if err != nil {
		return nil, err
	}

	pred := &Prediction{
		Signal:      SignalHold,
		BuyProb:     buyProb,
		SellProb:    sellProb,
		LatestPrice: vec.Close,
		Timestamp:   time.Now().UTC(),
	}

	switch {
	case buyProb > sellProb && buyProb > ConfidenceThreshold:
		pred.Signal = SignalBuy
		pred.Confidence = buyProb
		pred.StopLoss = vec.Close * (1 - stopLossPct)
		pred.TakeProfit = vec.Close * (1 + takeProfitPct)
	case sellProb > buyProb && sellProb > ConfidenceThreshold:
		pred.Signal = SignalSell
		pred.Confidence = sellProb
		pred.StopLoss = vec.Close * (1 + stopLossPct)
		pred.TakeProfit = vec.Close * (1 - takeProfitPct)
	}

	if pred.Signal != SignalHold {
		pred.StopValue = StopLossValue(inst, vec.Close, pred.StopLoss)
	}
	return pred, nil
}

// scoreHypothesis builds one row with the hypothesis flag set, standardizes
// it, and evaluates the classifier.
func (s *Scorer) scoreHypothesis(values []float64, flagIdx int, flag float64) (float64, error) {
	row := make([]float64, len(values))
	copy(row, values)
	row[flagIdx] = flag

	scaled, err := s.artifacts.Scaler.Transform(row)
	if err != nil {
		return 0, fmt.Errorf("signal: %w", err)
	}
	prob, err := s.artifacts.Model.PredictProba(scaled)
	if err != nil {
		return 0, fmt.Errorf("signal: %w", err)
	}
	return prob, nil
}
