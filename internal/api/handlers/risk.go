package handlers

import (
	"net/http"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/api/models"

	"github.com/gin-gonic/gin"
)

// RiskHandler reports per-metric volatility of one ticker's history
type RiskHandler struct {
	store SeriesStore
	table string
}

func NewRiskHandler(store SeriesStore, table string) *RiskHandler {
	return &RiskHandler{store: store, table: table}
}

// GetRisk handles GET /api/v1/risk/:ticker
func (h *RiskHandler) GetRisk(c *gin.Context) {
	if !requireStore(c, h.store) {
		return
	}
	var req models.RiskRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Table == "" {
		req.Table = h.table
	}
	if req.Years <= 0 {
		req.Years = 5
	}

	ticker := c.Param("ticker")
	byMetric, err := h.store.LoadMetrics(c.Request.Context(), req.Table, ticker, req.Years)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(byMetric) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "no data for ticker " + ticker,
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.RiskResponse{
		Ticker:  ticker,
		Years:   req.Years,
		Metrics: analysis.MetricVolatility(byMetric),
	})
}
