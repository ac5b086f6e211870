// Package estimate turns a historical series into GBM growth parameters.
package estimate

import (
	"math"

	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/stats"
)

const (
	// MinPoints is the shortest series accepted for estimation.
	MinPoints = 3
	// MinReturns is the fewest usable log-returns accepted for estimation.
	MinReturns = 2
)

// Estimate is the outcome of parameter estimation on one series.
type Estimate struct {
	MeanReturn float64
	Volatility float64

	// InitialValue and LatestPeriod come from the last observation; projections start there.
	InitialValue float64
	LatestPeriod int

	Returns []float64
	// Skipped counts consecutive pairs whose log-return is undefined.
	Skipped int
}

// FromSeries computes the mean log-return and the population standard
// deviation of log-returns for a series ordered ascending by period.
//
// A pair (v[i-1], v[i]) is skipped when v[i-1] <= 0 or the ratio is not
// positive. Fewer than MinPoints observations or MinReturns usable returns
// yields *model.InsufficientDataError.
func FromSeries(series model.HistoricalSeries) (Estimate, error) {
	values := series.Values()
	if len(values) < MinPoints {
		return Estimate{}, &model.InsufficientDataError{Points: len(values), Returns: max(len(values)-1, 0), Required: MinReturns}
	}

	returns := make([]float64, 0, len(values)-1)
	skipped := 0
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if !(prev > 0) || !(cur > 0) || math.IsInf(prev, 0) || math.IsInf(cur, 0) {
			skipped++
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < MinReturns {
		return Estimate{}, &model.InsufficientDataError{Points: len(values), Returns: len(returns), Required: MinReturns}
	}

	last, _ := series.Latest()
	return Estimate{
		MeanReturn:   stats.Mean(returns),
		Volatility:   stats.PopulationStdDev(returns),
		InitialValue: last.Value,
		LatestPeriod: last.Period,
		Returns:      returns,
		Skipped:      skipped,
	}, nil
}

// Parameters builds simulation parameters starting from the latest observation.
func (e Estimate) Parameters(horizonSteps, pathCount int) (model.SimulationParameters, error) {
	return model.NewParameters(e.InitialValue, e.MeanReturn, e.Volatility, horizonSteps, pathCount)
}
