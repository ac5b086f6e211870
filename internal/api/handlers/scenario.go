package handlers

import (
	"net/http"

	"montecarlo-forecast/internal/api/models"
	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/scenario"

	"github.com/gin-gonic/gin"
)

// ScenarioHandler lists the built-in and configured presets
type ScenarioHandler struct {
	scenarios []*scenario.Fixed
}

func NewScenarioHandler(cfg *config.Config) *ScenarioHandler {
	return &ScenarioHandler{scenarios: scenario.FromConfig(cfg)}
}

// ListScenarios handles GET /api/v1/scenarios
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	out := make([]models.ScenarioInfo, len(h.scenarios))
	for i, s := range h.scenarios {
		out[i] = models.ScenarioInfo{
			Name:        s.Label,
			Description: s.Description,
			Parameters:  s.Params,
		}
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}
