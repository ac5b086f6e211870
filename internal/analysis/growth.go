package analysis

import (
	"math"

	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/stats"
)

// Stability bands the average simple growth of a series.
type Stability string

const (
	StabilityHighGrowth     Stability = "HIGH_GROWTH"
	StabilityModerateGrowth Stability = "MODERATE_GROWTH"
	StabilityStable         Stability = "STABLE"
	StabilityDeclining      Stability = "DECLINING"
)

// MinStabilityPoints is the series length needed before a stability band is given.
const MinStabilityPoints = 3

// StabilityFromGrowth bands an average growth given in percent:
// >15 high, >5 moderate, >0 stable, else declining.
func StabilityFromGrowth(pct float64) Stability {
	switch {
	case pct > 15:
		return StabilityHighGrowth
	case pct > 5:
		return StabilityModerateGrowth
	case pct > 0:
		return StabilityStable
	default:
		return StabilityDeclining
	}
}

// PeriodGrowth is the simple growth from one observation to the next.
type PeriodGrowth struct {
	From          int     `json:"from"`
	To            int     `json:"to"`
	GrowthPercent float64 `json:"growth_percent"`
}

// GrowthReport is the historical growth profile of one series.
type GrowthReport struct {
	Ticker       string              `json:"ticker,omitempty"`
	Metric       string              `json:"metric,omitempty"`
	Observations []model.Observation `json:"observations"`
	YearOverYear []PeriodGrowth      `json:"year_over_year"`
	// CAGRPercent is nil when either endpoint is not positive or the periods do not advance.
	CAGRPercent *float64 `json:"cagr_percent,omitempty"`
	// AverageGrowthPercent is the mean of YearOverYear; nil when there is none.
	AverageGrowthPercent *float64  `json:"average_growth_percent,omitempty"`
	Stability            Stability `json:"stability,omitempty"`
}

// GrowthHistory computes period-over-period growth, CAGR and a stability band
// for a series ordered ascending by period.
//
// Pairs whose earlier value is not positive have no defined growth and are
// left out. Fewer than two observations yields *model.InsufficientDataError.
func GrowthHistory(series model.HistoricalSeries) (GrowthReport, error) {
	obs := series.Observations
	if len(obs) < 2 {
		return GrowthReport{}, &model.InsufficientDataError{Points: len(obs), Returns: 0, Required: 1}
	}

	r := GrowthReport{
		Ticker:       series.Ticker,
		Metric:       series.Metric,
		Observations: obs,
		YearOverYear: make([]PeriodGrowth, 0, len(obs)-1),
	}
	rates := make([]float64, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		prev, cur := obs[i-1], obs[i]
		if !(prev.Value > 0) {
			continue
		}
		g := (cur.Value - prev.Value) / prev.Value * 100
		r.YearOverYear = append(r.YearOverYear, PeriodGrowth{From: prev.Period, To: cur.Period, GrowthPercent: g})
		rates = append(rates, g)
	}

	first, last := obs[0], obs[len(obs)-1]
	if span := last.Period - first.Period; span > 0 && first.Value > 0 && last.Value > 0 {
		cagr := (math.Pow(last.Value/first.Value, 1/float64(span)) - 1) * 100
		r.CAGRPercent = &cagr
	}

	if len(rates) > 0 {
		avg := stats.Mean(rates)
		r.AverageGrowthPercent = &avg
		if len(obs) >= MinStabilityPoints {
			r.Stability = StabilityFromGrowth(avg)
		}
	}
	return r, nil
}
