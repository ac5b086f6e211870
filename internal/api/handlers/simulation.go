package handlers

import (
	"context"
	"net/http"
	"strings"

	"montecarlo-forecast/internal/api/models"
	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/montecarlo"
	"montecarlo-forecast/internal/scenario"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Request limits keep a single run within memory bounds.
const (
	MaxPaths   = 100000
	MaxHorizon = 50
)

// SimulationHandler handles simulation requests
type SimulationHandler struct {
	runner    *forecast.Runner
	store     SeriesStore
	scenarios []*scenario.Fixed
	defaults  config.SimulationConfig
	table     string
	results   *data.Cache[*forecast.Forecast]
	log       logrus.FieldLogger
}

// NewSimulationHandler creates a new simulation handler. store may be nil
// when no database is configured; results may be nil to disable retrieval by id.
func NewSimulationHandler(runner *forecast.Runner, store SeriesStore, cfg *config.Config, results *data.Cache[*forecast.Forecast], log logrus.FieldLogger) *SimulationHandler {
	return &SimulationHandler{
		runner:    runner,
		store:     store,
		scenarios: scenario.FromConfig(cfg),
		defaults:  cfg.Simulation,
		table:     cfg.Database.Table,
		results:   results,
		log:       log,
	}
}

// RunSimulation handles POST /api/v1/simulations
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	f, err := h.run(c.Request.Context(), "", req, req.Options)
	if err != nil {
		respondError(c, err)
		return
	}

	id := uuid.NewString()
	h.results.Set(id, f)
	h.log.WithFields(logrus.Fields{"id": id, "scenario": f.Name}).Info("simulation stored")

	resp := models.SimulationResponse{
		ID:       id,
		Status:   "completed",
		Forecast: f,
		Estimate: estimateInfo(f),
	}
	if req.Options.IncludePaths && f.Result != nil {
		resp.Paths = f.Result.Paths
	}
	c.JSON(http.StatusOK, resp)
}

// GetSimulation handles GET /api/v1/simulations/:id
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	f, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.SimulationResponse{
		ID:       c.Param("id"),
		Status:   "completed",
		Forecast: f,
		Estimate: estimateInfo(f),
	})
}

// GetPaths handles GET /api/v1/simulations/:id/paths?format=json|csv
func (h *SimulationHandler) GetPaths(c *gin.Context) {
	f, ok := h.lookup(c)
	if !ok {
		return
	}

	if strings.EqualFold(c.Query("format"), "csv") {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=\"paths-"+c.Param("id")+".csv\"")
		c.Status(http.StatusOK)
		if err := montecarlo.EncodePathsCSV(c.Writer, f.Result); err != nil {
			h.log.WithError(err).Warn("paths csv write failed")
		}
		return
	}

	rows := montecarlo.Rows(f.Result)
	points := make([]models.PathPoint, len(rows))
	for i, r := range rows {
		points[i] = models.PathPoint{Path: r.Path, Step: r.Step, Value: r.Value, CumReturn: r.CumReturn}
	}
	c.JSON(http.StatusOK, models.PathsResponse{ID: c.Param("id"), Points: points})
}

// CompareSimulations handles POST /api/v1/simulations/compare
func (h *SimulationHandler) CompareSimulations(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	seen := map[string]bool{}
	var forecasts []*forecast.Forecast
	var comparison []models.ComparisonResult
	for _, v := range req.Variations {
		if seen[v.Name] {
			badRequest(c, "INVALID_REQUEST", "duplicate variation name: "+v.Name)
			return
		}
		seen[v.Name] = true

		opts := mergeOptions(req.Options, v.Options)
		f, err := h.run(c.Request.Context(), v.Name, v.SimulationRequest, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		f.Name = v.Name
		f.Result = nil
		forecasts = append(forecasts, f)
		comparison = append(comparison, models.ComparisonResult{Name: v.Name, Forecast: f})
	}

	c.JSON(http.StatusOK, models.CompareResponse{
		Comparison: comparison,
		Ranking:    forecast.Rank(forecasts),
	})
}

func (h *SimulationHandler) lookup(c *gin.Context) (*forecast.Forecast, bool) {
	f, ok := h.results.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "simulation not found or expired",
			},
		})
		return nil, false
	}
	return f, true
}

func (h *SimulationHandler) run(ctx context.Context, name string, req models.SimulationRequest, o models.SimulationOptions) (*forecast.Forecast, error) {
	if o.Paths < 0 || o.Paths > MaxPaths {
		return nil, invalidRequest("paths must be between 0 and %d", MaxPaths)
	}
	if o.HorizonYears < 0 || o.HorizonYears > MaxHorizon {
		return nil, invalidRequest("horizon_years must be between 0 and %d", MaxHorizon)
	}

	sc, err := h.resolve(ctx, name, req)
	if err != nil {
		return nil, err
	}

	opts := forecast.Options{
		HorizonSteps: o.HorizonYears,
		PathCount:    o.Paths,
		Seed:         o.Seed,
		Parallel:     o.Parallel,
		KeepPaths:    true,
	}
	if opts.Seed == 0 {
		opts.Seed = h.defaults.Seed
	}
	if _, historical := sc.(*scenario.Historical); historical {
		if opts.HorizonSteps == 0 {
			opts.HorizonSteps = h.defaults.HorizonYears
		}
		if opts.PathCount == 0 {
			opts.PathCount = h.defaults.Paths
		}
	}
	return h.runner.Run(ctx, sc, opts)
}

// resolve turns exactly one parameter source of req into a scenario.
func (h *SimulationHandler) resolve(ctx context.Context, name string, req models.SimulationRequest) (scenario.Scenario, error) {
	set := 0
	for _, present := range []bool{req.Scenario != "", req.Source != nil, req.Series != nil, req.Parameters != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, invalidRequest("exactly one of scenario, source, series or parameters is required")
	}

	switch {
	case req.Scenario != "":
		f, ok := scenario.Lookup(h.scenarios, req.Scenario)
		if !ok {
			return nil, invalidRequest("unknown scenario %q", req.Scenario)
		}
		return f, nil

	case req.Source != nil:
		if h.store == nil {
			return nil, errNoStore
		}
		table := req.Source.Table
		if table == "" {
			table = h.table
		}
		series, err := h.store.LoadSeries(ctx, table, req.Source.Ticker, req.Source.Metric)
		if err != nil {
			return nil, err
		}
		return scenario.NewHistorical(series), nil

	case req.Series != nil:
		in := req.Series
		if len(in.Periods) > 0 && len(in.Periods) != len(in.Values) {
			return nil, invalidRequest("series periods and values differ in length")
		}
		series := model.NewSeries(in.Values...)
		series.Ticker, series.Metric = in.Ticker, in.Metric
		for i := range in.Periods {
			series.Observations[i].Period = in.Periods[i]
		}
		series.SortByPeriod()
		return scenario.NewHistorical(series), nil

	default:
		label := req.Parameters.Name
		if label == "" {
			label = name
		}
		if label == "" {
			label = "custom"
		}
		return &scenario.Fixed{
			Label: label,
			Params: model.SimulationParameters{
				InitialValue: req.Parameters.InitialValue,
				MeanReturn:   req.Parameters.MeanReturn,
				Volatility:   req.Parameters.Volatility,
				HorizonSteps: h.defaults.HorizonYears,
				PathCount:    h.defaults.Paths,
			},
		}, nil
	}
}

// mergeOptions overlays non-zero fields of override onto base.
func mergeOptions(base, override models.SimulationOptions) models.SimulationOptions {
	sim := config.MergeSimulation(
		config.SimulationConfig{HorizonYears: base.HorizonYears, Paths: base.Paths, Seed: base.Seed},
		config.SimulationConfig{HorizonYears: override.HorizonYears, Paths: override.Paths, Seed: override.Seed},
	)
	return models.SimulationOptions{
		HorizonYears: sim.HorizonYears,
		Paths:        sim.Paths,
		Seed:         sim.Seed,
		Parallel:     base.Parallel || override.Parallel,
	}
}

func estimateInfo(f *forecast.Forecast) *models.EstimateInfo {
	if f.Estimate == nil {
		return nil
	}
	return &models.EstimateInfo{
		MeanReturn:   f.Estimate.MeanReturn,
		Volatility:   f.Estimate.Volatility,
		ReturnsUsed:  len(f.Estimate.Returns),
		Skipped:      f.Estimate.Skipped,
		LatestPeriod: f.Estimate.LatestPeriod,
	}
}
