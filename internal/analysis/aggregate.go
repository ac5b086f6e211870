package analysis

import (
	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/stats"
)

// Percentile ranks used by the report.
const (
	RankP5     = 0.05
	RankP25    = 0.25
	RankMedian = 0.50
	RankP75    = 0.75
	RankP95    = 0.95
)

// Aggregate summarizes the terminal values of result against its initial value.
func Aggregate(result *model.SimulationResult) (model.StatisticsReport, error) {
	if result == nil {
		return model.StatisticsReport{}, &model.EmptyResultError{}
	}
	return AggregateTerminal(result.TerminalValues(), result.Parameters.InitialValue)
}

// AggregateTerminal builds a report from terminal values.
//
// Percentiles use nearest-rank selection (index floor(n*p), clamped), min/max
// are the sorted extremes, and growth probability counts values strictly
// greater than initial.
func AggregateTerminal(terminals []float64, initial float64) (model.StatisticsReport, error) {
	if len(terminals) == 0 {
		return model.StatisticsReport{}, &model.EmptyResultError{}
	}

	sorted := stats.SortedCopy(terminals)
	n := len(sorted)

	growth := 0
	for _, v := range sorted {
		if v > initial {
			growth++
		}
	}

	return model.StatisticsReport{
		Count:        n,
		InitialValue: initial,

		Mean:   stats.Mean(sorted),
		Median: stats.NearestRank(sorted, RankMedian),
		P5:     stats.NearestRank(sorted, RankP5),
		P25:    stats.NearestRank(sorted, RankP25),
		P75:    stats.NearestRank(sorted, RankP75),
		P95:    stats.NearestRank(sorted, RankP95),
		Min:    sorted[0],
		Max:    sorted[n-1],

		GrowthProbabilityPercent: float64(growth) / float64(n) * 100,
	}, nil
}
