package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/api/models"
	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/model"
)

func seedStore(t *testing.T) *data.SeriesStore {
	t.Helper()
	store, err := data.Open(filepath.Join(t.TempDir(), "fin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	put := func(ticker string, values ...float64) {
		obs := make([]model.Observation, len(values))
		for i, v := range values {
			obs[i] = model.Observation{Period: 2019 + i, Value: v}
		}
		require.NoError(t, store.UpsertObservations(ctx, "financials", ticker, "revenue", obs))
	}
	put("ACME", 100, 110, 125, 130, 150)
	put("BOLT", 50, 45, 60, 58, 70)
	put("TINY", 10, 12)
	require.NoError(t, store.SetSector(ctx, "financials", "ACME", "Technology"))
	require.NoError(t, store.SetSector(ctx, "financials", "BOLT", "Technology"))
	return store
}

func newTestRouter(t *testing.T, store *data.SeriesStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Simulation.Paths = 200
	cfg.Simulation.Seed = 11

	deps := Deps{
		Config:  cfg,
		Results: data.NewCache[*forecast.Forecast](time.Minute),
	}
	if store != nil {
		deps.Store = store
	}
	return NewRouter(deps)
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[models.ErrorResponse](t, w).Error.Code
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSimulation_ScenarioStoredAndRetrievable(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/v1/simulations", `{"scenario":"test1","options":{"paths":100,"seed":5}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulationResponse](t, w)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "TEST1", resp.Forecast.Name)
	assert.Equal(t, 100, resp.Forecast.Report.Count)
	assert.Equal(t, uint64(5), resp.Forecast.Seed)
	require.NotNil(t, resp.Forecast.Sanity)
	assert.Nil(t, resp.Estimate)
	assert.Empty(t, resp.Paths)

	w = do(r, http.MethodGet, "/api/v1/simulations/"+resp.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[models.SimulationResponse](t, w)
	assert.Equal(t, resp.Forecast.Report, again.Forecast.Report)

	w = do(r, http.MethodGet, "/api/v1/simulations/"+resp.ID+"/paths?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "path,step,value,cum_return\n"))

	w = do(r, http.MethodGet, "/api/v1/simulations/"+resp.ID+"/paths", "")
	require.Equal(t, http.StatusOK, w.Code)
	paths := decode[models.PathsResponse](t, w)
	assert.Len(t, paths.Points, 100*6)

	w = do(r, http.MethodGet, "/api/v1/simulations/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestSimulation_IncludePaths(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(r, http.MethodPost, "/api/v1/simulations",
		`{"parameters":{"initial_value":100,"mean_return":0.05,"volatility":0.2},"options":{"paths":10,"horizon_years":3,"include_paths":true}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulationResponse](t, w)
	assert.Equal(t, "custom", resp.Forecast.Name)
	require.Len(t, resp.Paths, 10)
	assert.Len(t, resp.Paths[0], 4)
	assert.Equal(t, 100.0, resp.Paths[0][0])
}

func TestSimulation_StoredSeries(t *testing.T) {
	r := newTestRouter(t, seedStore(t))

	w := do(r, http.MethodPost, "/api/v1/simulations", `{"source":{"ticker":"ACME","metric":"revenue"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulationResponse](t, w)
	assert.Equal(t, "ACME", resp.Forecast.Ticker)
	assert.Equal(t, 2023, resp.Forecast.LatestPeriod)
	assert.Equal(t, 150.0, resp.Forecast.Parameters.InitialValue)
	assert.Equal(t, 200, resp.Forecast.Report.Count)
	assert.Equal(t, 5, resp.Forecast.Parameters.HorizonSteps)
	require.NotNil(t, resp.Estimate)
	assert.Equal(t, 4, resp.Estimate.ReturnsUsed)
	assert.Nil(t, resp.Forecast.Sanity)
}

func TestSimulation_Errors(t *testing.T) {
	r := newTestRouter(t, seedStore(t))

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"no source", `{}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"two sources", `{"scenario":"TEST1","parameters":{"initial_value":1}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown scenario", `{"scenario":"NOPE"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad json", `{`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing metric field", `{"source":{"ticker":"ACME"}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown metric", `{"source":{"ticker":"ACME","metric":"ebitda"}}`, http.StatusNotFound, "NOT_FOUND"},
		{"metric not an identifier", `{"source":{"ticker":"ACME","metric":"rev enue"}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"table not an identifier", `{"source":{"ticker":"ACME","metric":"revenue","table":"bad-name"}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"short series", `{"series":{"values":[1,2]}}`, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"},
		{"period mismatch", `{"series":{"values":[1,2,3],"periods":[1]}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"negative volatility", `{"parameters":{"initial_value":100,"volatility":-1}}`, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"too many paths", `{"scenario":"TEST1","options":{"paths":100000000}}`, http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/simulations", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestCompare(t *testing.T) {
	r := newTestRouter(t, nil)

	body := `{
	  "options": {"paths": 100, "seed": 3},
	  "variations": [
	    {"name": "steady", "parameters": {"initial_value": 100, "mean_return": 0.05, "volatility": 0.05}},
	    {"name": "shrinking", "parameters": {"initial_value": 100, "mean_return": -0.3, "volatility": 0.05}, "options": {"horizon_years": 2}}
	  ]
	}`
	w := do(r, http.MethodPost, "/api/v1/simulations/compare", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CompareResponse](t, w)
	require.Len(t, resp.Comparison, 2)
	assert.Equal(t, 2, resp.Comparison[1].Forecast.Parameters.HorizonSteps)
	require.Len(t, resp.Ranking, 2)
	assert.Equal(t, "steady", resp.Ranking[0].Label)

	dup := `{"variations":[{"name":"a","scenario":"TEST1"},{"name":"a","scenario":"TEST2"}]}`
	w = do(r, http.MethodPost, "/api/v1/simulations/compare", dup)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/simulations/compare", `{"variations":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScenarios(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/api/v1/scenarios", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Scenarios []models.ScenarioInfo `json:"scenarios"`
	}](t, w)
	require.Len(t, resp.Scenarios, 3)
	assert.Equal(t, "TEST1", resp.Scenarios[0].Name)
	assert.Equal(t, 1000.0, resp.Scenarios[0].Parameters.InitialValue)
}

func TestSeriesEndpoints(t *testing.T) {
	r := newTestRouter(t, seedStore(t))

	w := do(r, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"revenue"`)

	w = do(r, http.MethodGet, "/api/v1/tickers", "")
	require.Equal(t, http.StatusOK, w.Code)
	tickers := decode[struct {
		Tickers []string `json:"tickers"`
	}](t, w)
	assert.Equal(t, []string{"ACME", "BOLT", "TINY"}, tickers.Tickers)

	w = do(r, http.MethodGet, "/api/v1/metrics?table=missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, path := range []string{
		"/api/v1/metrics?table=bad-name",
		"/api/v1/tickers?table=bad-name",
		"/api/v1/rank?metric=rev-enue",
		"/api/v1/sectors/Technology?metric=rev-enue&year=2020",
		"/api/v1/risk/ACME?table=bad-name",
	} {
		w = do(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, w), path)
	}

	w = do(r, http.MethodGet, "/api/v1/sectors", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Technology"`)

	w = do(r, http.MethodGet, "/api/v1/sectors/Technology?metric=revenue&year=2023", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sector := decode[models.SectorResponse](t, w)
	assert.Equal(t, 2, sector.Summary.Count)
	assert.Equal(t, 110.0, sector.Summary.Median)
	assert.Equal(t, map[string]float64{"ACME": 150, "BOLT": 70}, sector.Companies)

	w = do(r, http.MethodGet, "/api/v1/sectors/Energy?metric=revenue&year=2023", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "EMPTY_RESULT", errorCode(t, w))
}

func TestRank(t *testing.T) {
	r := newTestRouter(t, seedStore(t))

	w := do(r, http.MethodGet, "/api/v1/rank?metric=revenue", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.RankResponse](t, w)
	require.Len(t, resp.Rankings, 2)
	assert.Equal(t, 1, resp.Rankings[0].Rank)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "TINY", resp.Skipped[0].Ticker)

	w = do(r, http.MethodGet, "/api/v1/rank?metric=revenue&tickers=BOLT&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[models.RankResponse](t, w)
	require.Len(t, resp.Rankings, 1)
	assert.Equal(t, "BOLT", resp.Rankings[0].Ticker)

	w = do(r, http.MethodGet, "/api/v1/rank", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRank_TickersGetOwnSeeds(t *testing.T) {
	store, err := data.Open(filepath.Join(t.TempDir(), "twins.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	obs := []model.Observation{{Period: 2020, Value: 100}, {Period: 2021, Value: 90}, {Period: 2022, Value: 130}, {Period: 2023, Value: 120}}
	for _, ticker := range []string{"TWINA", "TWINB"} {
		require.NoError(t, store.UpsertObservations(context.Background(), "financials", ticker, "revenue", obs))
	}
	r := newTestRouter(t, store)

	w := do(r, http.MethodGet, "/api/v1/rank?metric=revenue", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.RankResponse](t, w)
	require.Len(t, resp.Rankings, 2)
	// Identical histories under one configured seed still draw different shocks.
	assert.NotEqual(t, resp.Rankings[0].Median, resp.Rankings[1].Median)

	w = do(r, http.MethodGet, "/api/v1/rank?metric=revenue", "")
	again := decode[models.RankResponse](t, w)
	assert.Equal(t, resp.Rankings, again.Rankings)
}

func TestRisk(t *testing.T) {
	r := newTestRouter(t, seedStore(t))

	w := do(r, http.MethodGet, "/api/v1/risk/ACME?years=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.RiskResponse](t, w)
	require.Len(t, resp.Metrics, 1)
	assert.Equal(t, "revenue", resp.Metrics[0].Metric)
	assert.Equal(t, 5, resp.Metrics[0].Count)

	w = do(r, http.MethodGet, "/api/v1/risk/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory(t *testing.T) {
	r := newTestRouter(t, seedStore(t))

	w := do(r, http.MethodGet, "/api/v1/history/ACME?metric=revenue", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	g := decode[analysis.GrowthReport](t, w)
	assert.Equal(t, "ACME", g.Ticker)
	require.Len(t, g.Observations, 5)
	require.Len(t, g.YearOverYear, 4)
	assert.InDelta(t, 10, g.YearOverYear[0].GrowthPercent, 1e-9)
	require.NotNil(t, g.CAGRPercent)
	// 150 / 100 over 2019-2023
	assert.InDelta(t, 10.668, *g.CAGRPercent, 1e-3)
	assert.Equal(t, analysis.StabilityModerateGrowth, g.Stability)

	w = do(r, http.MethodGet, "/api/v1/history/TINY?metric=revenue", "")
	require.Equal(t, http.StatusOK, w.Code)
	g = decode[analysis.GrowthReport](t, w)
	assert.Empty(t, g.Stability)

	w = do(r, http.MethodGet, "/api/v1/history/NOPE?metric=revenue", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_DATA", errorCode(t, w))

	w = do(r, http.MethodGet, "/api/v1/history/ACME", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/history/ACME?metric=rev-enue", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoDatabase(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/api/v1/metrics", "/api/v1/tickers", "/api/v1/rank?metric=revenue", "/api/v1/risk/ACME", "/api/v1/history/ACME?metric=revenue"} {
		w := do(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Equal(t, "NO_DATABASE", errorCode(t, w))
	}

	w := do(r, http.MethodPost, "/api/v1/simulations", `{"source":{"ticker":"ACME","metric":"revenue"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/api/v1/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
