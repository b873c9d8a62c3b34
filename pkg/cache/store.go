// Package cache persists fetched series to disk, one CSV file per
// (timeframe, instrument) key. Writes replace the prior file atomically;
// reads hand out independent copies. Staleness is a health flag only, stale
// entries are still served.
package cache

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sigflow/pkg/market"
)

const (
	// StaleAfter classifies an entry as stale once the last bar is older
	// than this. Hours-old data is tolerated by design.
	StaleAfter = 2 * time.Hour

	// ReportJSONName and ReportTextName are the run-report artifacts the
	// pipeline persists next to the cached series.
	ReportJSONName = "last_run.json"
	ReportTextName = "last_run.txt"
)

// ErrCacheMiss signals an absent entry. A miss is an expected condition, not
// a failure.
var ErrCacheMiss = errors.New("cache: entry not found")

var csvHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// Store is a disk-backed series cache rooted at one directory.
type Store struct {
	dir string
}

// NewStore opens (and creates if needed) a cache rooted at dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the cache root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) entryPath(symbol, timeframe string) string {
	return filepath.Join(s.dir, timeframe, SanitizeSymbol(symbol)+".csv")
}

// Write persists a series under (symbol, timeframe), fully replacing any prior
// entry. The replacement is atomic: readers never observe a torn file.
func (s *Store) Write(symbol, timeframe string, series market.Series) error {
	normalized := series.Normalize()
	if len(normalized) == 0 {
		return fmt.Errorf("cache: refusing to write empty series for %s %s", symbol, timeframe)
	}

	dir := filepath.Join(s.dir, timeframe)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, SanitizeSymbol(symbol)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: write header: %w", err)
	}
	for _, bar := range normalized {
		record := []string{
			bar.Time.UTC().Format(time.RFC3339),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("cache: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.entryPath(symbol, timeframe)); err != nil {
		return fmt.Errorf("cache: replace entry: %w", err)
	}
	return nil
}

// Read returns an independent copy of the cached series, or ErrCacheMiss when
// the entry does not exist.
func (s *Store) Read(symbol, timeframe string) (market.Series, error) {
	f, err := os.Open(s.entryPath(symbol, timeframe))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache: open entry: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cache: read %s %s: %w", symbol, timeframe, err)
	}
	if len(records) < 2 {
		return nil, ErrCacheMiss
	}

	series := make(market.Series, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("cache: malformed row in %s %s", symbol, timeframe)
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("cache: parse timestamp %q: %w", rec[0], err)
		}
		values := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("cache: parse %s value %q: %w", csvHeader[i+1], rec[i+1], err)
			}
			values[i] = v
		}
		series = append(series, market.Bar{
			Time:   ts.UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}
	return series, nil
}

// IsStale reports whether the entry's most recent bar is older than the
// staleness threshold. Absent entries are stale.
func (s *Store) IsStale(symbol, timeframe string) bool {
	series, err := s.Read(symbol, timeframe)
	if err != nil {
		return true
	}
	last, ok := series.Last()
	if !ok {
		return true
	}
	return time.Since(last.Time) > StaleAfter
}

// Summary reports operational cache health: file counts per timeframe and the
// timestamp of the last pipeline run taken from the persisted run report.
type Summary struct {
	FilesPerTimeframe map[string]int `json:"files_per_timeframe"`
	TotalFiles        int            `json:"total_files"`
	LastRun           time.Time      `json:"last_run"`
}

// Summary walks the cache tree and reads the last-run report artifact.
func (s *Store) Summary() (*Summary, error) {
	out := &Summary{FilesPerTimeframe: make(map[string]int)}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cache: read dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("cache: read timeframe dir %s: %w", entry.Name(), err)
		}
		count := 0
		for _, f := range files {
			if !f.IsDir() && strings.HasSuffix(f.Name(), ".csv") {
				count++
			}
		}
		out.FilesPerTimeframe[entry.Name()] = count
		out.TotalFiles += count
	}

	// The run report is optional: a cache that has never seen a pipeline
	// run simply reports a zero LastRun.
	if data, err := os.ReadFile(filepath.Join(s.dir, ReportJSONName)); err == nil {
		var report struct {
			StartedAt time.Time `json:"started_at"`
		}
		if err := json.Unmarshal(data, &report); err == nil {
			out.LastRun = report.StartedAt
		}
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
