package analysis

import (
	"math"
	"sort"

	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/stats"
)

// SanityTolerance is the relative band within which a simulated mean is
// considered consistent with the theoretical expected value.
const SanityTolerance = 0.10

// RiskProfile frames the tails of a report relative to the current value.
type RiskProfile struct {
	DownsidePercent float64       `json:"downside_percent"` // (p5 - current) / current * 100
	UpsidePercent   float64       `json:"upside_percent"`   // (p95 - current) / current * 100
	Outlook         model.Outlook `json:"outlook"`
}

func Risk(r model.StatisticsReport, current float64) RiskProfile {
	return RiskProfile{
		DownsidePercent: (r.P5 - current) / current * 100,
		UpsidePercent:   (r.P95 - current) / current * 100,
		Outlook:         model.OutlookFromGrowthProbability(r.GrowthProbabilityPercent),
	}
}

// Sanity compares a simulated mean with InitialValue*exp(MeanReturn*T).
type Sanity struct {
	Expected         float64 `json:"expected"`
	Simulated        float64 `json:"simulated"`
	DeviationPercent float64 `json:"deviation_percent"`
	Consistent       bool    `json:"consistent"`
}

func SanityCheck(r model.StatisticsReport, p model.SimulationParameters) Sanity {
	expected := p.ExpectedTerminal()
	dev := (r.Mean - expected) / expected
	return Sanity{
		Expected:         expected,
		Simulated:        r.Mean,
		DeviationPercent: dev * 100,
		Consistent:       math.Abs(dev) < SanityTolerance,
	}
}

// MetricRisk is the coefficient of variation of one metric's raw values.
type MetricRisk struct {
	Metric                 string  `json:"metric"`
	Count                  int     `json:"count"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// MetricVolatility computes the coefficient of variation for every metric
// with at least 3 values, sorted by metric name. Metrics whose mean is zero
// are left out.
func MetricVolatility(byMetric map[string][]float64) []MetricRisk {
	out := make([]MetricRisk, 0, len(byMetric))
	for name, values := range byMetric {
		if len(values) < 3 {
			continue
		}
		cv := stats.CoefficientOfVariation(values)
		if math.IsNaN(cv) {
			continue
		}
		out = append(out, MetricRisk{Metric: name, Count: len(values), CoefficientOfVariation: cv})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out
}
