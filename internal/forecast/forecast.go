// Package forecast runs a scenario end to end: parameters, simulation,
// aggregation and risk framing.
package forecast

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/estimate"
	"montecarlo-forecast/internal/logging"
	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/montecarlo"
	"montecarlo-forecast/internal/scenario"
)

type Options struct {
	HorizonSteps int
	PathCount    int
	// Seed fixes the random stream. 0 draws a fresh seed, reported on the Forecast.
	Seed uint64
	// Parallel splits paths across the engine's workers.
	Parallel bool
	// KeepPaths retains the simulated paths on the Forecast.
	KeepPaths bool
}

// ForIndex returns opts for the index-th of several runs in one batch, with a
// seed of its own so the runs do not share shocks.
func (o Options) ForIndex(index int) Options {
	o.Seed = montecarlo.DeriveSeed(o.Seed, index)
	return o
}

// Forecast is the outcome of one scenario run.
type Forecast struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Ticker      string `json:"ticker,omitempty"`
	Metric      string `json:"metric,omitempty"`
	// LatestPeriod is set for historical scenarios; the projection ends at
	// LatestPeriod + HorizonSteps.
	LatestPeriod int                `json:"latest_period,omitempty"`
	Estimate     *estimate.Estimate `json:"-"`

	Parameters model.SimulationParameters `json:"parameters"`
	Report     model.StatisticsReport     `json:"report"`
	Risk       analysis.RiskProfile       `json:"risk"`
	// Sanity is only computed for fixed scenarios, whose parameters are known exactly.
	Sanity *analysis.Sanity `json:"sanity,omitempty"`

	Seed     uint64                  `json:"seed"`
	Duration time.Duration           `json:"duration_ns"`
	Result   *model.SimulationResult `json:"-"`
}

// TargetPeriod is the period of the projected terminal values, or 0 when unknown.
func (f *Forecast) TargetPeriod() int {
	if f.LatestPeriod == 0 {
		return 0
	}
	return f.LatestPeriod + f.Parameters.HorizonSteps
}

type Runner struct {
	Engine *montecarlo.Engine
	Log    logrus.FieldLogger
}

func NewRunner(engine *montecarlo.Engine, log logrus.FieldLogger) *Runner {
	if engine == nil {
		engine = montecarlo.New()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{Engine: engine, Log: log}
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log == nil {
		return logging.Discard()
	}
	return r.Log
}

// Run resolves the scenario's parameters, simulates and aggregates.
func (r *Runner) Run(ctx context.Context, sc scenario.Scenario, opts Options) (*Forecast, error) {
	params, err := sc.Parameters(scenario.Context{HorizonSteps: opts.HorizonSteps, PathCount: opts.PathCount})
	if err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	start := time.Now()
	engine := r.Engine
	if engine == nil {
		engine = montecarlo.New()
	}
	var result *model.SimulationResult
	if opts.Parallel {
		result, err = engine.RunParallel(ctx, params, seed)
	} else {
		result, err = engine.Run(ctx, params, montecarlo.NewSource(seed))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: simulate: %w", sc.Name(), err)
	}
	report, err := analysis.Aggregate(result)
	if err != nil {
		return nil, fmt.Errorf("%s: aggregate: %w", sc.Name(), err)
	}

	f := &Forecast{
		Name:       sc.Name(),
		Parameters: params,
		Report:     report,
		Risk:       analysis.Risk(report, params.InitialValue),
		Seed:       seed,
		Duration:   time.Since(start),
	}
	switch s := sc.(type) {
	case *scenario.Historical:
		est, _ := s.Estimate()
		f.Estimate = &est
		f.Ticker = s.Series.Ticker
		f.Metric = s.Series.Metric
		f.LatestPeriod = est.LatestPeriod
	case *scenario.Fixed:
		f.Description = s.Description
		sanity := analysis.SanityCheck(report, params)
		f.Sanity = &sanity
	}
	if opts.KeepPaths {
		f.Result = result
	}

	r.log().WithFields(logrus.Fields{
		"scenario":    f.Name,
		"paths":       params.PathCount,
		"horizon":     params.HorizonSteps,
		"seed":        seed,
		"parallel":    opts.Parallel,
		"growth_prob": report.GrowthProbabilityPercent,
		"duration":    f.Duration,
	}).Info("forecast complete")
	return f, nil
}

// RunAll runs every scenario with the same shape, stopping at the first
// error. Each run gets its own seed derived from opts.Seed.
func (r *Runner) RunAll(ctx context.Context, scs []scenario.Scenario, opts Options) ([]*Forecast, error) {
	out := make([]*Forecast, 0, len(scs))
	for i, sc := range scs {
		f, err := r.Run(ctx, sc, opts.ForIndex(i))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Rank orders forecasts by growth probability, then by median upside.
func Rank(forecasts []*Forecast) []analysis.RankedReport {
	byName := make(map[string]model.StatisticsReport, len(forecasts))
	for _, f := range forecasts {
		byName[f.Name] = f.Report
	}
	return analysis.RankByGrowth(byName)
}
