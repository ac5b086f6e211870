package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"montecarlo-forecast/internal/api"
	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/logging"
	"montecarlo-forecast/internal/montecarlo"

	"github.com/joho/godotenv"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("FORECAST_CONFIG"), "Path to YAML config (optional)")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if wd, err := os.Getwd(); err == nil {
		log.WithField("dir", wd).Debug("working directory")
	}

	deps := api.Deps{
		Config:  cfg,
		Runner:  forecast.NewRunner(&montecarlo.Engine{Workers: cfg.Simulation.Workers}, log),
		Results: data.NewCache[*forecast.Forecast](cfg.API.ResultTTL),
		Log:     log,
	}

	// Simulations from scenarios and inline data work without a database.
	if _, err := os.Stat(cfg.Database.Path); err == nil {
		store, err := data.Open(cfg.Database.Path)
		if err != nil {
			log.WithError(err).Fatal("failed to open database")
		}
		defer store.Close()
		store.Log = log
		deps.Store = store
		log.WithField("path", cfg.Database.Path).Info("database opened")
	} else {
		log.WithField("path", cfg.Database.Path).Warn("database not found, stored-series endpoints disabled")
	}

	stop := make(chan struct{})
	defer close(stop)
	go deps.Results.RunSweeper(time.Minute, stop)

	router := api.NewRouter(deps)

	addr := fmt.Sprintf(":%s", cfg.API.Port)
	log.WithField("addr", addr).Info("starting API server")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
