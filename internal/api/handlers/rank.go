package handlers

import (
	"errors"
	"net/http"
	"strings"

	"montecarlo-forecast/internal/api/models"
	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/scenario"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RankHandler ranks stored tickers by projected growth
type RankHandler struct {
	runner   *forecast.Runner
	store    SeriesStore
	defaults config.SimulationConfig
	table    string
	log      logrus.FieldLogger
}

func NewRankHandler(runner *forecast.Runner, store SeriesStore, cfg *config.Config, log logrus.FieldLogger) *RankHandler {
	return &RankHandler{
		runner:   runner,
		store:    store,
		defaults: cfg.Simulation,
		table:    cfg.Database.Table,
		log:      log,
	}
}

// RankTickers handles GET /api/v1/rank
func (h *RankHandler) RankTickers(c *gin.Context) {
	if !requireStore(c, h.store) {
		return
	}
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Paths < 0 || req.Paths > MaxPaths || req.Years < 0 || req.Years > MaxHorizon {
		respondError(c, invalidRequest("years must be at most %d and paths at most %d", MaxHorizon, MaxPaths))
		return
	}
	if req.Table == "" {
		req.Table = h.table
	}
	ctx := c.Request.Context()

	var tickers []string
	if req.Tickers != "" {
		for _, t := range strings.Split(req.Tickers, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
	} else {
		all, err := h.store.ListTickers(ctx, req.Table)
		if err != nil {
			respondError(c, err)
			return
		}
		tickers = all
	}

	sim := config.MergeSimulation(h.defaults, config.SimulationConfig{HorizonYears: req.Years, Paths: req.Paths, Seed: req.Seed})
	opts := forecast.Options{HorizonSteps: sim.HorizonYears, PathCount: sim.Paths, Seed: sim.Seed}

	byTicker := map[string]*forecast.Forecast{}
	var forecasts []*forecast.Forecast
	var skipped []models.SkippedTicker
	for i, ticker := range tickers {
		series, err := h.store.LoadSeries(ctx, req.Table, ticker, req.Metric)
		if err != nil {
			// A missing metric or table fails the whole request.
			respondError(c, err)
			return
		}
		f, err := h.runner.Run(ctx, scenario.NewHistorical(series), opts.ForIndex(i))
		if err != nil {
			if errors.Is(err, model.ErrInsufficientData) || errors.Is(err, model.ErrInvalidParameter) {
				skipped = append(skipped, models.SkippedTicker{Ticker: ticker, Reason: err.Error()})
				continue
			}
			respondError(c, err)
			return
		}
		f.Name = ticker
		byTicker[ticker] = f
		forecasts = append(forecasts, f)
	}
	h.log.WithFields(logrus.Fields{
		"metric":  req.Metric,
		"ranked":  len(forecasts),
		"skipped": len(skipped),
	}).Info("rank complete")

	ranked := forecast.Rank(forecasts)

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		f := byTicker[r.Label]
		rankings[i] = models.Ranking{
			Rank:                     i + 1,
			Ticker:                   r.Label,
			CurrentValue:             r.Report.InitialValue,
			Median:                   r.Report.Median,
			P5:                       r.Report.P5,
			P95:                      r.Report.P95,
			MedianUpside:             r.MedianUpside,
			GrowthProbabilityPercent: r.Report.GrowthProbabilityPercent,
			Outlook:                  f.Risk.Outlook,
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{Metric: req.Metric, Rankings: rankings, Skipped: skipped})
}

var _ SeriesStore = (*data.SeriesStore)(nil)
