package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/estimate"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/logging"
	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/montecarlo"
	"montecarlo-forecast/internal/render"
	"montecarlo-forecast/internal/scenario"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "simulate":
		err = cmdSimulate(os.Args[2:])
	case "scenarios":
		err = cmdScenarios(os.Args[2:])
	case "estimate":
		err = cmdEstimate(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "rank":
		err = cmdRank(os.Args[2:])
	case "risk":
		err = cmdRisk(os.Args[2:])
	case "metrics":
		err = cmdMetrics(os.Args[2:])
	case "sector":
		err = cmdSector(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --scenario TEST1 [--paths 5000 --years 5 --seed 42 --parallel --json --out results/paths.csv]")
	fmt.Println("  cli simulate --ticker AAPL --metric revenue [--db financial_data.db]")
	fmt.Println("  cli simulate --data series.json")
	fmt.Println("  cli simulate --initial 1000 --mu 0.08 --sigma 0.15")
	fmt.Println("  cli scenarios")
	fmt.Println("  cli estimate --ticker AAPL --metric revenue")
	fmt.Println("  cli history --ticker AAPL --metric revenue [--json]")
	fmt.Println("  cli rank --metric revenue [--tickers AAPL,MSFT --limit 10]")
	fmt.Println("  cli risk --ticker AAPL [--years 5]")
	fmt.Println("  cli metrics [--tickers]")
	fmt.Println("  cli sector --sector Technology --metric revenue --year 2023")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - every command accepts --config path/to/config.yaml; FORECAST_* variables override it")
	fmt.Println("  - --seed 0 draws a random seed, which is printed with the results")
}

// common holds the flags shared by every subcommand.
type common struct {
	cfgPath *string
	dbPath  *string
	table   *string
}

func commonFlags(fs *flag.FlagSet) common {
	return common{
		cfgPath: fs.String("config", os.Getenv("FORECAST_CONFIG"), "Path to YAML config (optional)"),
		dbPath:  fs.String("db", "", "SQLite database path (overrides config)"),
		table:   fs.String("table", "", "Table holding the financial data (overrides config)"),
	}
}

func (c common) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(*c.cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if *c.dbPath != "" {
		cfg.Database.Path = *c.dbPath
	}
	if *c.table != "" {
		cfg.Database.Table = *c.table
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format), nil
}

func openStore(cfg *config.Config, log logrus.FieldLogger) (*data.SeriesStore, error) {
	if _, err := os.Stat(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("database %s: %w", cfg.Database.Path, err)
	}
	store, err := data.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store.Log = log
	return store, nil
}

func cmdSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cf := commonFlags(fs)
	name := fs.String("scenario", "", "Preset scenario name")
	ticker := fs.String("ticker", "", "Ticker whose stored history drives the estimate")
	metric := fs.String("metric", "", "Metric column for --ticker")
	dataPath := fs.String("data", "", "Path to a series JSON file")
	initial := fs.Float64("initial", 0, "Initial value for an ad-hoc scenario")
	mu := fs.Float64("mu", 0, "Mean annual return for an ad-hoc scenario")
	sigma := fs.Float64("sigma", 0, "Annual volatility for an ad-hoc scenario")
	years := fs.Int("years", 0, "Projection horizon in years (0 = config default)")
	paths := fs.Int("paths", 0, "Number of simulated paths (0 = config default)")
	seed := fs.Uint64("seed", 0, "Random seed (0 = config default, else random)")
	parallel := fs.Bool("parallel", false, "Split paths across workers")
	asJSON := fs.Bool("json", false, "Print the forecast as JSON")
	outPath := fs.String("out", "", "Optional CSV path for every simulated path")
	_ = fs.Parse(args)

	cfg, log, err := cf.load()
	if err != nil {
		return err
	}

	var sc scenario.Scenario
	switch {
	case *name != "":
		f, ok := scenario.Lookup(scenario.FromConfig(cfg), *name)
		if !ok {
			return fmt.Errorf("unknown scenario %q (see: cli scenarios)", *name)
		}
		sc = f
	case *ticker != "":
		if *metric == "" {
			return errors.New("--metric is required with --ticker")
		}
		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()
		series, err := store.LoadSeries(context.Background(), cfg.Database.Table, *ticker, *metric)
		if err != nil {
			return err
		}
		sc = scenario.NewHistorical(series)
	case *dataPath != "":
		series, err := data.LoadSeriesJSON(*dataPath)
		if err != nil {
			return err
		}
		sc = scenario.NewHistorical(series)
	case *initial != 0:
		sc = &scenario.Fixed{
			Label: "custom",
			Params: model.SimulationParameters{
				InitialValue: *initial,
				MeanReturn:   *mu,
				Volatility:   *sigma,
				HorizonSteps: cfg.Simulation.HorizonYears,
				PathCount:    cfg.Simulation.Paths,
			},
		}
	default:
		return errors.New("one of --scenario, --ticker, --data or --initial is required")
	}

	opts := forecast.Options{
		HorizonSteps: *years,
		PathCount:    *paths,
		Seed:         *seed,
		Parallel:     *parallel,
		KeepPaths:    *outPath != "",
	}
	if opts.Seed == 0 {
		opts.Seed = cfg.Simulation.Seed
	}
	if _, historical := sc.(*scenario.Historical); historical {
		if opts.HorizonSteps == 0 {
			opts.HorizonSteps = cfg.Simulation.HorizonYears
		}
		if opts.PathCount == 0 {
			opts.PathCount = cfg.Simulation.Paths
		}
	}

	runner := forecast.NewRunner(&montecarlo.Engine{Workers: cfg.Simulation.Workers}, log)
	f, err := runner.Run(context.Background(), sc, opts)
	if err != nil {
		return err
	}

	if *asJSON {
		if err := printJSON(f); err != nil {
			return err
		}
	} else {
		render.WriteReport(os.Stdout, f)
	}

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			return err
		}
		if err := montecarlo.WritePathsCSV(*outPath, f.Result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d paths to %s\n", len(f.Result.Paths), *outPath)
	}
	return nil
}

func cmdScenarios(args []string) error {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	cf := commonFlags(fs)
	_ = fs.Parse(args)

	cfg, _, err := cf.load()
	if err != nil {
		return err
	}
	fmt.Printf("%-12s %12s %8s %8s %6s %8s  %s\n", "name", "initial", "mu", "sigma", "years", "paths", "description")
	for _, f := range scenario.FromConfig(cfg) {
		p := f.Params
		fmt.Printf("%-12s %12s %8.3f %8.3f %6d %8d  %s\n",
			f.Label, render.Abbreviate(p.InitialValue), p.MeanReturn, p.Volatility, p.HorizonSteps, p.PathCount, f.Description)
	}
	return nil
}

func cmdEstimate(args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ExitOnError)
	cf := commonFlags(fs)
	ticker := fs.String("ticker", "", "Ticker")
	metric := fs.String("metric", "", "Metric column")
	dataPath := fs.String("data", "", "Path to a series JSON file (instead of --ticker)")
	_ = fs.Parse(args)

	cfg, log, err := cf.load()
	if err != nil {
		return err
	}
	series, err := loadSeries(cfg, log, *dataPath, *ticker, *metric)
	if err != nil {
		return err
	}

	est, err := estimate.FromSeries(series)
	if err != nil {
		return err
	}
	fmt.Printf("Series: %s %s (%d points)\n", series.Ticker, series.Metric, series.Len())
	fmt.Printf("Latest (%d): %s\n", est.LatestPeriod, render.Abbreviate(est.InitialValue))
	fmt.Printf("Mean log-return: %.6f (%s)\n", est.MeanReturn, render.Percent(est.MeanReturn*100))
	fmt.Printf("Volatility:      %.6f (%s)\n", est.Volatility, render.Percent(est.Volatility*100))
	fmt.Printf("Returns used: %d, skipped pairs: %d\n", len(est.Returns), est.Skipped)
	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cf := commonFlags(fs)
	ticker := fs.String("ticker", "", "Ticker")
	metric := fs.String("metric", "", "Metric column")
	dataPath := fs.String("data", "", "Path to a series JSON file (instead of --ticker)")
	asJSON := fs.Bool("json", false, "Print the report as JSON")
	_ = fs.Parse(args)

	cfg, log, err := cf.load()
	if err != nil {
		return err
	}
	series, err := loadSeries(cfg, log, *dataPath, *ticker, *metric)
	if err != nil {
		return err
	}

	report, err := analysis.GrowthHistory(series)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(report)
	}
	render.WriteGrowth(os.Stdout, report)
	return nil
}

// loadSeries reads a series from a JSON file when dataPath is set, else from the store.
func loadSeries(cfg *config.Config, log logrus.FieldLogger, dataPath, ticker, metric string) (model.HistoricalSeries, error) {
	if dataPath != "" {
		return data.LoadSeriesJSON(dataPath)
	}
	if ticker == "" || metric == "" {
		return model.HistoricalSeries{}, errors.New("--ticker and --metric (or --data) are required")
	}
	store, err := openStore(cfg, log)
	if err != nil {
		return model.HistoricalSeries{}, err
	}
	defer store.Close()
	return store.LoadSeries(context.Background(), cfg.Database.Table, ticker, metric)
}

func cmdRank(args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	cf := commonFlags(fs)
	metric := fs.String("metric", "", "Metric column to project")
	tickers := fs.String("tickers", "", "Comma-separated tickers (default: all in the table)")
	years := fs.Int("years", 0, "Projection horizon in years (0 = config default)")
	paths := fs.Int("paths", 0, "Paths per ticker (0 = config default)")
	seed := fs.Uint64("seed", 0, "Random seed (0 = config default, else random)")
	limit := fs.Int("limit", 10, "Rows to print (0 = all)")
	_ = fs.Parse(args)

	if *metric == "" {
		return errors.New("--metric is required")
	}
	cfg, log, err := cf.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	list := splitList(*tickers)
	if len(list) == 0 {
		all, err := store.ListTickers(ctx, cfg.Database.Table)
		if err != nil {
			return err
		}
		list = all
	}

	sim := config.MergeSimulation(cfg.Simulation, config.SimulationConfig{HorizonYears: *years, Paths: *paths, Seed: *seed})
	opts := forecast.Options{HorizonSteps: sim.HorizonYears, PathCount: sim.Paths, Seed: sim.Seed}
	runner := forecast.NewRunner(&montecarlo.Engine{Workers: sim.Workers}, log)

	var forecasts []*forecast.Forecast
	for i, t := range list {
		series, err := store.LoadSeries(ctx, cfg.Database.Table, t, *metric)
		if err != nil {
			return err
		}
		f, err := runner.Run(ctx, scenario.NewHistorical(series), opts.ForIndex(i))
		if err != nil {
			if errors.Is(err, model.ErrInsufficientData) || errors.Is(err, model.ErrInvalidParameter) {
				fmt.Fprintf(os.Stderr, "skip %s: %v\n", t, err)
				continue
			}
			return err
		}
		f.Name = t
		forecasts = append(forecasts, f)
	}

	ranked := forecast.Rank(forecasts)
	if *limit > 0 && *limit < len(ranked) {
		ranked = ranked[:*limit]
	}
	render.WriteRanking(os.Stdout, ranked)
	return nil
}

func cmdRisk(args []string) error {
	fs := flag.NewFlagSet("risk", flag.ExitOnError)
	cf := commonFlags(fs)
	ticker := fs.String("ticker", "", "Ticker")
	years := fs.Int("years", 5, "Most recent years to consider")
	_ = fs.Parse(args)

	if *ticker == "" {
		return errors.New("--ticker is required")
	}
	cfg, log, err := cf.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	byMetric, err := store.LoadMetrics(context.Background(), cfg.Database.Table, *ticker, *years)
	if err != nil {
		return err
	}
	render.WriteMetricRisk(os.Stdout, *ticker, analysis.MetricVolatility(byMetric))
	return nil
}

func cmdMetrics(args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	cf := commonFlags(fs)
	tickers := fs.Bool("tickers", false, "List tickers instead of metrics")
	_ = fs.Parse(args)

	cfg, log, err := cf.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	list := store.ListMetrics
	if *tickers {
		list = store.ListTickers
	}
	names, err := list(context.Background(), cfg.Database.Table)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func cmdSector(args []string) error {
	fs := flag.NewFlagSet("sector", flag.ExitOnError)
	cf := commonFlags(fs)
	sector := fs.String("sector", "", "Sector name (omit to list sectors)")
	metric := fs.String("metric", "", "Metric column")
	year := fs.Int("year", 0, "Fiscal year")
	_ = fs.Parse(args)

	cfg, log, err := cf.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	if *sector == "" {
		sectors, err := store.ListSectors(ctx, cfg.Database.Table)
		if err != nil {
			return err
		}
		for _, s := range sectors {
			fmt.Println(s)
		}
		return nil
	}
	if *metric == "" || *year == 0 {
		return errors.New("--metric and --year are required with --sector")
	}

	byTicker, err := store.LoadSectorValues(ctx, cfg.Database.Table, *sector, *metric, *year)
	if err != nil {
		return err
	}
	values := make([]float64, 0, len(byTicker))
	for _, v := range byTicker {
		values = append(values, v)
	}
	summary, err := analysis.SummarizeSector(values)
	if err != nil {
		return err
	}
	render.WriteSector(os.Stdout, *sector, *metric, *year, summary)
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
