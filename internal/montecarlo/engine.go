// Package montecarlo generates geometric Brownian motion projection paths.
package montecarlo

import (
	"context"
	"errors"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"montecarlo-forecast/internal/model"
)

// Dt is the time step in years. The recurrence is annual.
const Dt = 1.0

type Engine struct {
	// Workers bounds RunParallel concurrency. 0 means GOMAXPROCS.
	Workers int
}

func New() *Engine { return &Engine{} }

// step holds the per-run coefficients of the log-normal recurrence.
type step struct {
	drift     float64
	diffusion float64
	initial   float64
	horizon   int
}

func newStep(p model.SimulationParameters) step {
	return step{
		drift:     (p.MeanReturn - 0.5*p.Volatility*p.Volatility) * Dt,
		diffusion: p.Volatility * math.Sqrt(Dt),
		initial:   p.InitialValue,
		horizon:   p.HorizonSteps,
	}
}

func (s step) path(src Source) model.Path {
	path := make(model.Path, s.horizon+1)
	path[0] = s.initial
	for t := 1; t <= s.horizon; t++ {
		shock := src.NormFloat64()
		path[t] = path[t-1] * math.Exp(s.drift+s.diffusion*shock)
	}
	return path
}

// Run simulates params.PathCount independent paths drawing every shock from src.
// Parameters are validated before any work; on failure or cancellation no
// partial result is returned. ctx is checked between paths.
func (e *Engine) Run(ctx context.Context, params model.SimulationParameters, src Source) (*model.SimulationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("random source is nil")
	}

	s := newStep(params)
	paths := make([]model.Path, params.PathCount)
	for i := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths[i] = s.path(src)
	}
	return &model.SimulationResult{Parameters: params, Paths: paths}, nil
}

// RunParallel splits the paths across workers. Worker w owns a contiguous
// block of path indices and its own stream derived from (seed, w), so the
// result is reproducible for a given seed and worker count.
func (e *Engine) RunParallel(ctx context.Context, params model.SimulationParameters, seed uint64) (*model.SimulationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	workers := e.workers()
	if workers > params.PathCount {
		workers = params.PathCount
	}
	chunk := (params.PathCount + workers - 1) / workers

	s := newStep(params)
	paths := make([]model.Path, params.PathCount)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, params.PathCount)
		if lo >= hi {
			break
		}
		src := streamSource(seed, w)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				paths[i] = s.path(src)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &model.SimulationResult{Parameters: params, Paths: paths}, nil
}

func (e *Engine) workers() int {
	if e != nil && e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Deterministic returns the zero-volatility curve InitialValue*exp(MeanReturn*t).
func Deterministic(p model.SimulationParameters) model.Path {
	path := make(model.Path, p.HorizonSteps+1)
	for t := range path {
		path[t] = p.InitialValue * math.Exp(p.MeanReturn*float64(t))
	}
	return path
}
