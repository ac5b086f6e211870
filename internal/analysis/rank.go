package analysis

import (
	"sort"

	"montecarlo-forecast/internal/model"
)

type RankedReport struct {
	Label  string                 `json:"label"`
	Report model.StatisticsReport `json:"report"`
	// MedianUpside is median/initial - 1.
	MedianUpside float64 `json:"median_upside"`
}

// RankByGrowth sorts independent runs descending by growth probability,
// breaking ties by median upside and then by label.
func RankByGrowth(byLabel map[string]model.StatisticsReport) []RankedReport {
	out := make([]RankedReport, 0, len(byLabel))
	for label, r := range byLabel {
		up := 0.0
		if r.InitialValue > 0 {
			up = r.Median/r.InitialValue - 1
		}
		out = append(out, RankedReport{Label: label, Report: r, MedianUpside: up})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Report.GrowthProbabilityPercent != b.Report.GrowthProbabilityPercent {
			return a.Report.GrowthProbabilityPercent > b.Report.GrowthProbabilityPercent
		}
		if a.MedianUpside != b.MedianUpside {
			return a.MedianUpside > b.MedianUpside
		}
		return a.Label < b.Label
	})
	return out
}
