// Package api wires the HTTP surface of the forecaster.
package api

import (
	"net/http"
	"os"
	"strings"

	"montecarlo-forecast/internal/api/handlers"
	"montecarlo-forecast/internal/api/middleware"
	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators shared by handlers. Store may be nil.
type Deps struct {
	Config  *config.Config
	Store   handlers.SeriesStore
	Runner  *forecast.Runner
	Results *data.Cache[*forecast.Forecast]
	Log     logrus.FieldLogger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Runner == nil {
		d.Runner = forecast.NewRunner(nil, d.Log)
	}
	if d.Config.API.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.CORS(d.Config.API.AllowedOrigins))
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))

	simulationHandler := handlers.NewSimulationHandler(d.Runner, d.Store, d.Config, d.Results, d.Log)
	scenarioHandler := handlers.NewScenarioHandler(d.Config)
	seriesHandler := handlers.NewSeriesHandler(d.Store, d.Config.Database.Table)
	rankHandler := handlers.NewRankHandler(d.Runner, d.Store, d.Config, d.Log)
	riskHandler := handlers.NewRiskHandler(d.Store, d.Config.Database.Table)
	historyHandler := handlers.NewHistoryHandler(d.Store, d.Config.Database.Table)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": d.Store != nil})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulations", simulationHandler.RunSimulation)
		api.POST("/simulations/compare", simulationHandler.CompareSimulations)
		api.GET("/simulations/:id", simulationHandler.GetSimulation)
		api.GET("/simulations/:id/paths", simulationHandler.GetPaths)

		api.GET("/scenarios", scenarioHandler.ListScenarios)

		api.GET("/metrics", seriesHandler.ListMetrics)
		api.GET("/tickers", seriesHandler.ListTickers)
		api.GET("/sectors", seriesHandler.ListSectors)
		api.GET("/sectors/:sector", seriesHandler.GetSector)

		api.GET("/rank", rankHandler.RankTickers)
		api.GET("/risk/:ticker", riskHandler.GetRisk)
		api.GET("/history/:ticker", historyHandler.GetHistory)
	}

	staticDir := d.Config.API.StaticDir
	serveStatic := false
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			serveStatic = true
			router.Static("/assets", staticDir+"/assets")
			router.StaticFile("/favicon.ico", staticDir+"/favicon.ico")
			d.Log.WithField("dir", staticDir).Info("serving static files")
		}
	}

	router.NoRoute(func(c *gin.Context) {
		// index.html handles client-side routes; API paths still 404.
		if serveStatic && !strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.File(staticDir + "/index.html")
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
