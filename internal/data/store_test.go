package data

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montecarlo-forecast/internal/model"
)

func openTestStore(t *testing.T) (*SeriesStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fin.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	metrics, err := again.ListMetrics(context.Background(), "financials")
	require.NoError(t, err)
	assert.Equal(t, []string{"revenue", "net_income", "operating_income", "total_assets", "total_liabilities"}, metrics)
}

func TestLoadSeries_SkipsUnusableCells(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertObservations(ctx, "financials", "ACME", "revenue", []model.Observation{
		{Period: 2022, Value: 200},
		{Period: 2021, Value: 100},
		{Period: 2023, Value: 1.5e11},
	}))
	_, err := s.db.Exec(`INSERT INTO financials (ticker, year, quarter, revenue) VALUES ('ACME', 2024, 'FY', 'N/A'), ('ACME', 2025, 'FY', 'pending'), ('ACME', 2026, 'FY', NULL)`)
	require.NoError(t, err)

	series, err := s.LoadSeries(ctx, "financials", "ACME", "revenue")
	require.NoError(t, err)
	assert.Equal(t, "ACME", series.Ticker)
	assert.Equal(t, "revenue", series.Metric)
	assert.Equal(t, []model.Observation{
		{Period: 2021, Value: 100},
		{Period: 2022, Value: 200},
		{Period: 2023, Value: 1.5e11},
	}, series.Observations)

	empty, err := s.LoadSeries(ctx, "financials", "NOPE", "revenue")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestUpsertObservations_Overwrites(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertObservations(ctx, "financials", "ACME", "net_income", []model.Observation{{Period: 2021, Value: 10}}))
	require.NoError(t, s.UpsertObservations(ctx, "financials", "ACME", "net_income", []model.Observation{{Period: 2021, Value: 12.5}}))

	series, err := s.LoadSeries(ctx, "financials", "ACME", "net_income")
	require.NoError(t, err)
	assert.Equal(t, []model.Observation{{Period: 2021, Value: 12.5}}, series.Observations)
}

func TestUpsertObservations_AddsMetricAndTable(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertObservations(ctx, "edgar", "ACME", "free_cash_flow", []model.Observation{{Period: 2020, Value: 5}}))

	metrics, err := s.ListMetrics(ctx, "edgar")
	require.NoError(t, err)
	assert.Equal(t, []string{"free_cash_flow"}, metrics)

	assert.Error(t, s.UpsertObservations(ctx, "edgar", "ACME", "year", nil))
	assert.Error(t, s.UpsertObservations(ctx, "edgar", "", "x", nil))
	assert.Error(t, s.UpsertObservations(ctx, "edgar", "ACME", "bad name", nil))
}

func TestLoadSeries_Errors(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.LoadSeries(ctx, "financials", "ACME", "ebitda")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.LoadSeries(ctx, "missing", "ACME", "revenue")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.LoadSeries(ctx, "financials", "ACME", "revenue; DROP TABLE financials")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = s.ListMetrics(ctx, "bad-name")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestLoadMetrics_LatestYearsOldestFirst(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertObservations(ctx, "financials", "ACME", "revenue", []model.Observation{
		{Period: 2020, Value: 1}, {Period: 2021, Value: 2}, {Period: 2022, Value: 3},
	}))
	require.NoError(t, s.UpsertObservations(ctx, "financials", "ACME", "net_income", []model.Observation{
		{Period: 2022, Value: 30},
	}))

	got, err := s.LoadMetrics(ctx, "financials", "ACME", 2)
	require.NoError(t, err)
	assert.Equal(t, map[string][]float64{
		"revenue":    {2, 3},
		"net_income": {30},
	}, got)
}

func TestTickersAndSectors(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, tk := range []string{"ZED", "ACME", "BOLT"} {
		require.NoError(t, s.UpsertObservations(ctx, "financials", tk, "revenue", []model.Observation{{Period: 2023, Value: 100}}))
	}
	require.NoError(t, s.SetSector(ctx, "financials", "ACME", "Technology"))
	require.NoError(t, s.SetSector(ctx, "financials", "BOLT", "Technology"))
	require.NoError(t, s.SetSector(ctx, "financials", "ZED", "N/A"))

	tickers, err := s.ListTickers(ctx, "financials")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME", "BOLT", "ZED"}, tickers)

	sectors, err := s.ListSectors(ctx, "financials")
	require.NoError(t, err)
	assert.Equal(t, []string{"Technology"}, sectors)

	values, err := s.LoadSectorValues(ctx, "financials", "Technology", "revenue", 2023)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"ACME": 100, "BOLT": 100}, values)
}

func TestParseValue(t *testing.T) {
	v, ok := parseValue("1.5e+11")
	assert.True(t, ok)
	assert.Equal(t, 1.5e11, v)

	v, ok = parseValue(" -42.25 ")
	assert.True(t, ok)
	assert.Equal(t, -42.25, v)

	_, ok = parseValue("N/A")
	assert.False(t, ok)
	_, ok = parseValue("")
	assert.False(t, ok)
	_, ok = parseValue("twelve")
	assert.False(t, ok)
}
