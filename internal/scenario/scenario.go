// Package scenario supplies simulation parameters, either fixed by the caller
// or estimated from a historical series.
package scenario

import (
	"fmt"

	"montecarlo-forecast/internal/estimate"
	"montecarlo-forecast/internal/model"
)

// Context carries the run shape chosen by the caller.
type Context struct {
	HorizonSteps int
	PathCount    int
}

type Scenario interface {
	Name() string
	Parameters(ctx Context) (model.SimulationParameters, error)
}

// Fixed uses caller-supplied growth parameters. HorizonSteps and PathCount
// from Context override the stored ones when set.
type Fixed struct {
	Label       string
	Description string
	Params      model.SimulationParameters
}

func (f *Fixed) Name() string { return f.Label }

func (f *Fixed) Parameters(ctx Context) (model.SimulationParameters, error) {
	p := f.Params
	if ctx.HorizonSteps != 0 {
		p.HorizonSteps = ctx.HorizonSteps
	}
	if ctx.PathCount != 0 {
		p.PathCount = ctx.PathCount
	}
	if err := p.Validate(); err != nil {
		return model.SimulationParameters{}, fmt.Errorf("scenario %s: %w", f.Label, err)
	}
	return p, nil
}

// Historical estimates growth parameters from a series and starts the
// projection from its latest value.
type Historical struct {
	Series model.HistoricalSeries

	estimated *estimate.Estimate
}

func NewHistorical(series model.HistoricalSeries) *Historical {
	return &Historical{Series: series}
}

func (h *Historical) Name() string {
	switch {
	case h.Series.Ticker != "" && h.Series.Metric != "":
		return h.Series.Ticker + " - " + h.Series.Metric
	case h.Series.Ticker != "":
		return h.Series.Ticker
	default:
		return "historical"
	}
}

// Estimate runs (once) and returns the parameter estimate.
func (h *Historical) Estimate() (estimate.Estimate, error) {
	if h.estimated == nil {
		est, err := estimate.FromSeries(h.Series)
		if err != nil {
			return estimate.Estimate{}, err
		}
		h.estimated = &est
	}
	return *h.estimated, nil
}

func (h *Historical) Parameters(ctx Context) (model.SimulationParameters, error) {
	est, err := h.Estimate()
	if err != nil {
		return model.SimulationParameters{}, err
	}
	return est.Parameters(ctx.HorizonSteps, ctx.PathCount)
}
