package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigflow/pkg/cache"
)

// RunSummary aggregates one pipeline execution. It is the single source of
// truth for acquisition health.
type RunSummary struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	// Errors is a capped sample; Failed carries the true count.
	Errors []string `json:"errors,omitempty"`
}

// Total is the number of tasks the run attempted.
func (s *RunSummary) Total() int { return s.Succeeded + s.Failed }

func (s *RunSummary) recordFailure(symbol, timeframe string, err error, sampleLimit int) {
	s.Failed++
	if len(s.Errors) < sampleLimit {
		s.Errors = append(s.Errors, fmt.Sprintf("%s %s: %v", symbol, timeframe, err))
	}
}

// Text renders the human-readable report body.
func (s *RunSummary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Data pipeline run report\n")
	fmt.Fprintf(&b, "========================\n")
	fmt.Fprintf(&b, "Started:   %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration:  %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Tasks:     %d\n", s.Total())
	fmt.Fprintf(&b, "Succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(&b, "Failed:    %d\n", s.Failed)
	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, "\nError sample (%d of %d failures):\n", len(s.Errors), s.Failed)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return b.String()
}

// WriteReport persists the run summary next to the cache, once as JSON for
// machines and once as plain text for operators.
func WriteReport(dir string, summary *RunSummary) error {
	if summary == nil {
		return fmt.Errorf("pipeline: nil summary")
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: encode report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, cache.ReportJSONName), data, 0o644); err != nil {
		return fmt.Errorf("pipeline: write json report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, cache.ReportTextName), []byte(summary.Text()), 0o644); err != nil {
		return fmt.Errorf("pipeline: write text report: %w", err)
	}
	return nil
}
