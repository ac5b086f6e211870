package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")
	s, err := data.Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.EnsureTable(ctx, "financial_data"))
	require.NoError(t, s.UpsertObservations(ctx, "financial_data", "ACME", "revenue", []model.Observation{
		{Period: 2020, Value: 100}, {Period: 2021, Value: 110}, {Period: 2022, Value: 125},
	}))
	require.NoError(t, s.Close())
	return path
}

func TestCommands_ReturnErrors(t *testing.T) {
	t.Setenv("FORECAST_CONFIG", "")
	db := seedDB(t)
	missing := filepath.Join(t.TempDir(), "missing.db")

	tests := []struct {
		name string
		run  func([]string) error
		args []string
		is   error
	}{
		{"rank without metric", cmdRank, []string{"--db", db}, nil},
		{"rank bad metric", cmdRank, []string{"--db", db, "--metric", "rev-enue", "--tickers", "ACME"}, data.ErrInvalidIdentifier},
		{"history unknown ticker", cmdHistory, []string{"--db", db, "--ticker", "NOPE", "--metric", "revenue"}, model.ErrInsufficientData},
		{"history without ticker", cmdHistory, []string{"--db", db}, nil},
		{"metrics missing database", cmdMetrics, []string{"--db", missing}, os.ErrNotExist},
		{"risk bad table", cmdRisk, []string{"--db", db, "--ticker", "ACME", "--table", "bad-name"}, data.ErrInvalidIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(tt.args)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}

	// The store was released on the error paths above.
	s, err := data.Open(db)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.UpsertObservations(context.Background(), "financial_data", "ACME", "revenue",
		[]model.Observation{{Period: 2023, Value: 140}}))
}

func TestHistoryCommand(t *testing.T) {
	t.Setenv("FORECAST_CONFIG", "")
	db := seedDB(t)
	require.NoError(t, cmdHistory([]string{"--db", db, "--ticker", "ACME", "--metric", "revenue"}))

	path := filepath.Join(t.TempDir(), "series.json")
	require.NoError(t, data.SaveSeriesJSON(model.HistoricalSeries{
		Ticker: "JSON", Metric: "revenue",
		Observations: []model.Observation{{Period: 2021, Value: 50}, {Period: 2022, Value: 60}},
	}, path))
	require.NoError(t, cmdHistory([]string{"--data", path, "--json"}))
}
