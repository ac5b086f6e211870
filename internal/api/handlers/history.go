package handlers

import (
	"net/http"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/api/models"

	"github.com/gin-gonic/gin"
)

// HistoryHandler reports the past growth of one ticker's metric
type HistoryHandler struct {
	store SeriesStore
	table string
}

func NewHistoryHandler(store SeriesStore, table string) *HistoryHandler {
	return &HistoryHandler{store: store, table: table}
}

// GetHistory handles GET /api/v1/history/:ticker?metric=
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	if !requireStore(c, h.store) {
		return
	}
	var req models.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Table == "" {
		req.Table = h.table
	}

	series, err := h.store.LoadSeries(c.Request.Context(), req.Table, c.Param("ticker"), req.Metric)
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := analysis.GrowthHistory(series)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
