package handlers

import (
	"net/http"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/api/models"

	"github.com/gin-gonic/gin"
)

// SeriesHandler exposes what the metric database holds
type SeriesHandler struct {
	store SeriesStore
	table string
}

func NewSeriesHandler(store SeriesStore, table string) *SeriesHandler {
	return &SeriesHandler{store: store, table: table}
}

func (h *SeriesHandler) tableParam(c *gin.Context) string {
	if t := c.Query("table"); t != "" {
		return t
	}
	return h.table
}

// ListMetrics handles GET /api/v1/metrics
func (h *SeriesHandler) ListMetrics(c *gin.Context) {
	if !requireStore(c, h.store) {
		return
	}
	table := h.tableParam(c)
	metrics, err := h.store.ListMetrics(c.Request.Context(), table)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": table, "metrics": metrics})
}

// ListTickers handles GET /api/v1/tickers
func (h *SeriesHandler) ListTickers(c *gin.Context) {
	if !requireStore(c, h.store) {
		return
	}
	table := h.tableParam(c)
	tickers, err := h.store.ListTickers(c.Request.Context(), table)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": table, "tickers": tickers})
}

// ListSectors handles GET /api/v1/sectors
func (h *SeriesHandler) ListSectors(c *gin.Context) {
	if !requireStore(c, h.store) {
		return
	}
	table := h.tableParam(c)
	sectors, err := h.store.ListSectors(c.Request.Context(), table)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": table, "sectors": sectors})
}

// GetSector handles GET /api/v1/sectors/:sector?metric=&year=
func (h *SeriesHandler) GetSector(c *gin.Context) {
	if !requireStore(c, h.store) {
		return
	}
	var req models.SectorRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	table := req.Table
	if table == "" {
		table = h.table
	}

	sector := c.Param("sector")
	byTicker, err := h.store.LoadSectorValues(c.Request.Context(), table, sector, req.Metric, req.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	values := make([]float64, 0, len(byTicker))
	for _, v := range byTicker {
		values = append(values, v)
	}
	summary, err := analysis.SummarizeSector(values)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SectorResponse{
		Sector:    sector,
		Metric:    req.Metric,
		Year:      req.Year,
		Summary:   summary,
		Companies: byTicker,
	})
}
