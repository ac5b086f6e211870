package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/logging"
	"montecarlo-forecast/internal/montecarlo"
	"montecarlo-forecast/internal/render"
	"montecarlo-forecast/internal/scenario"
)

// Demo:
// - Run the reference scenarios (plus any configured presets)
// - Print statistics, risk framing and the analytic sanity check
// - Show the first few simulated steps to illustrate the paths
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	only := flag.String("scenario", "", "Run only this scenario (default: all)")
	paths := flag.Int("paths", 0, "Override path count (0 = scenario default)")
	seed := flag.Uint64("seed", 42, "Random seed (0 = random)")
	n := flag.Int("n", 3, "Number of paths to preview")
	outDir := flag.String("out", "", "Optional directory to write per-scenario path CSVs")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	runner := forecast.NewRunner(&montecarlo.Engine{Workers: cfg.Simulation.Workers}, log)

	var scs []scenario.Scenario
	for _, f := range scenario.FromConfig(cfg) {
		if *only != "" && !strings.EqualFold(f.Label, *only) {
			continue
		}
		scs = append(scs, f)
	}
	if len(scs) == 0 {
		panic(fmt.Errorf("unknown scenario: %q", *only))
	}

	opts := forecast.Options{PathCount: *paths, Seed: *seed, KeepPaths: true}
	forecasts, err := runner.RunAll(context.Background(), scs, opts)
	if err != nil {
		panic(err)
	}

	for _, f := range forecasts {
		render.WriteReport(os.Stdout, f)

		fmt.Println("\nSAMPLE PATHS:")
		for i := 0; i < min(*n, len(f.Result.Paths)); i++ {
			p := f.Result.Paths[i]
			cells := make([]string, len(p))
			for j, v := range p {
				cells[j] = render.Abbreviate(v)
			}
			fmt.Printf("  #%d  %s\n", i+1, strings.Join(cells, " -> "))
		}

		if *outDir != "" {
			out := filepath.Join(*outDir, strings.ToLower(f.Name)+"_paths.csv")
			if err := os.MkdirAll(*outDir, 0o755); err != nil {
				panic(err)
			}
			if err := montecarlo.WritePathsCSV(out, f.Result); err != nil {
				panic(err)
			}
			fmt.Printf("\nWrote CSV: %s\n", out)
		}
		fmt.Println()
	}

	fmt.Println("Summary:")
	render.WriteRanking(os.Stdout, forecast.Rank(forecasts))
}
