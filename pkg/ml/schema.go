// Package ml loads the externally produced model artifacts the scorer
// consumes: a trained binary classifier, its feature scaler, and the ordered
// feature-name schema. The package only loads and evaluates these artifacts,
// it never fits or updates them.
package ml

import (
	"encoding/csv"
	"fmt"
	"os"
)

// LoadSchema reads the ordered feature-name list from a CSV artifact with a
// feature_name column. The order in the file is the order the model was
// trained with and must be preserved exactly.
func LoadSchema(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ml: open schema: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ml: read schema: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ml: schema file %s is empty", path)
	}

	col := -1
	for i, name := range records[0] {
		if name == "feature_name" {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("ml: schema file %s has no feature_name column", path)
	}

	names := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if col >= len(rec) || rec[col] == "" {
			return nil, fmt.Errorf("ml: schema file %s has a blank feature name", path)
		}
		names = append(names, rec[col])
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("ml: schema file %s lists no features", path)
	}
	return names, nil
}
