package analysis

import (
	"montecarlo-forecast/internal/model"
	"montecarlo-forecast/internal/stats"
)

// SectorSummary describes one metric across the companies of a sector in a
// single year. Unlike the projection report, Median averages the two middle
// values for an even count.
type SectorSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// SummarizeSector returns *model.EmptyResultError when values is empty.
// P25 and P75 use nearest-rank selection.
func SummarizeSector(values []float64) (SectorSummary, error) {
	if len(values) == 0 {
		return SectorSummary{}, &model.EmptyResultError{}
	}
	sorted := stats.SortedCopy(values)
	n := len(sorted)
	return SectorSummary{
		Count:  n,
		Mean:   stats.Mean(sorted),
		Median: stats.MedianAveraged(sorted),
		StdDev: stats.PopulationStdDev(sorted),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P25:    stats.NearestRank(sorted, RankP25),
		P75:    stats.NearestRank(sorted, RankP75),
	}, nil
}
