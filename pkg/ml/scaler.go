package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler applies the standardization the model was trained behind:
// (x - mean) / scale per column. Mean and scale are exported from the
// training run as a JSON artifact.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadScaler reads a scaler artifact from disk.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ml: read scaler: %w", err)
	}
	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ml: decode scaler: %w", err)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("ml: scaler %s has mismatched mean/scale lengths (%d/%d)",
			path, len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 {
			return nil, fmt.Errorf("ml: scaler %s has zero scale at column %d", path, i)
		}
	}
	return &s, nil
}

// Columns reports the number of feature columns the scaler expects.
func (s *Scaler) Columns() int { return len(s.Mean) }

// Transform standardizes one feature row. The row length must match the
// scaler's column count exactly.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("ml: scaler expects %d columns, got %d", len(s.Mean), len(row))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
