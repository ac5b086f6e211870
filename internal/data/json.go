package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"montecarlo-forecast/internal/model"
)

// LoadSeriesJSON reads a series file. Observations are sorted by period so
// files need not be ordered.
func LoadSeriesJSON(path string) (model.HistoricalSeries, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.HistoricalSeries{}, err
	}
	var series model.HistoricalSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return model.HistoricalSeries{}, fmt.Errorf("failed to parse series file: %w", err)
	}
	series.SortByPeriod()
	return series, nil
}

func SaveSeriesJSON(series model.HistoricalSeries, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(series, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}
	return os.WriteFile(path, raw, 0644)
}
