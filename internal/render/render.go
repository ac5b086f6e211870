// Package render formats forecasts for terminal output.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/model"
)

// Abbreviate scales v to a K/M/B suffix: 950, 1.5K, 2.3M, 1.25B.
func Abbreviate(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// Percent formats an already-scaled percentage with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

// WriteReport prints parameters, projection statistics, risk framing and,
// for fixed scenarios, the sanity check.
func WriteReport(w io.Writer, f *forecast.Forecast) {
	p := f.Parameters
	rule(w, "=", 70)
	fmt.Fprintf(w, "MONTE CARLO SIMULATION RESULTS: %s\n", f.Name)
	if f.Description != "" {
		fmt.Fprintln(w, f.Description)
	}
	rule(w, "=", 70)

	if f.LatestPeriod != 0 {
		fmt.Fprintf(w, "Current Value (%d): %s\n", f.LatestPeriod, Abbreviate(p.InitialValue))
	} else {
		fmt.Fprintf(w, "Initial Value: %s\n", Abbreviate(p.InitialValue))
	}
	fmt.Fprintf(w, "Mean Annual Return: %s\n", Percent(p.MeanReturn*100))
	fmt.Fprintf(w, "Annual Volatility: %s\n", Percent(p.Volatility*100))
	fmt.Fprintf(w, "Projection Years: %d\n", p.HorizonSteps)
	fmt.Fprintf(w, "Simulations: %d\n", p.PathCount)
	fmt.Fprintf(w, "Seed: %d\n", f.Seed)
	if f.Estimate != nil && f.Estimate.Skipped > 0 {
		fmt.Fprintf(w, "Skipped non-positive pairs: %d\n", f.Estimate.Skipped)
	}

	if target := f.TargetPeriod(); target != 0 {
		fmt.Fprintf(w, "\nPROJECTION STATISTICS FOR %d:\n", target)
	} else {
		fmt.Fprintln(w, "\nPROJECTION STATISTICS:")
	}
	writeStats(w, f.Report)

	fmt.Fprintln(w, "\nRISK ANALYSIS:")
	fmt.Fprintf(w, "Downside Risk (5th %%ile): %s\n", Percent(f.Risk.DownsidePercent))
	fmt.Fprintf(w, "Upside Potential (95th %%ile): %s\n", Percent(f.Risk.UpsidePercent))
	fmt.Fprintf(w, "Outlook: %s\n", outlookText(f.Risk.Outlook))

	if f.Sanity != nil {
		writeSanity(w, *f.Sanity)
	}
}

func writeStats(w io.Writer, r model.StatisticsReport) {
	fmt.Fprintf(w, "Average: %s\n", Abbreviate(r.Mean))
	fmt.Fprintf(w, "Median: %s\n", Abbreviate(r.Median))
	fmt.Fprintf(w, "5th Percentile (Conservative): %s\n", Abbreviate(r.P5))
	fmt.Fprintf(w, "25th Percentile: %s\n", Abbreviate(r.P25))
	fmt.Fprintf(w, "75th Percentile: %s\n", Abbreviate(r.P75))
	fmt.Fprintf(w, "95th Percentile (Optimistic): %s\n", Abbreviate(r.P95))
	fmt.Fprintf(w, "Range: %s to %s\n", Abbreviate(r.Min), Abbreviate(r.Max))
	fmt.Fprintf(w, "Probability of Growth: %s\n", Percent(r.GrowthProbabilityPercent))
}

func writeSanity(w io.Writer, s analysis.Sanity) {
	fmt.Fprintln(w, "\nSANITY CHECK:")
	fmt.Fprintf(w, "Theoretical Expected Value: %s\n", Abbreviate(s.Expected))
	fmt.Fprintf(w, "Simulation Average: %s\n", Abbreviate(s.Simulated))
	fmt.Fprintf(w, "Difference: %s\n", Percent(s.DeviationPercent))
	if s.Consistent {
		fmt.Fprintln(w, "Simulation results are consistent with theoretical expectations")
	} else {
		fmt.Fprintln(w, "Significant deviation from theoretical expectations")
	}
}

func outlookText(o model.Outlook) string {
	switch o {
	case model.OutlookHigh:
		return "HIGH confidence in growth"
	case model.OutlookModerate:
		return "MODERATE confidence in growth"
	default:
		return "UNCERTAIN growth outlook"
	}
}

// WriteRanking prints ranked forecasts as a table.
func WriteRanking(w io.Writer, ranked []analysis.RankedReport) {
	fmt.Fprintf(w, "%-4s %-28s %12s %12s %10s %10s\n", "#", "Scenario", "Current", "Median", "Upside", "P(growth)")
	rule(w, "-", 80)
	for i, r := range ranked {
		fmt.Fprintf(w, "%-4d %-28s %12s %12s %10s %10s\n",
			i+1, r.Label,
			Abbreviate(r.Report.InitialValue),
			Abbreviate(r.Report.Median),
			Percent(r.MedianUpside*100),
			Percent(r.Report.GrowthProbabilityPercent))
	}
}

// WriteMetricRisk prints the coefficient-of-variation table.
func WriteMetricRisk(w io.Writer, ticker string, rows []analysis.MetricRisk) {
	fmt.Fprintf(w, "RISK ANALYSIS: %s\n", ticker)
	rule(w, "-", 60)
	fmt.Fprintf(w, "%-30s %8s %16s\n", "Metric", "Years", "Volatility (CV)")
	for _, r := range rows {
		fmt.Fprintf(w, "%-30s %8d %16s\n", r.Metric, r.Count, Percent(r.CoefficientOfVariation))
	}
}

// WriteSector prints a sector cross-section summary.
func WriteSector(w io.Writer, sector, metric string, year int, s analysis.SectorSummary) {
	rule(w, "=", 60)
	fmt.Fprintf(w, "SECTOR ANALYSIS: %s (%d)\n", sector, year)
	fmt.Fprintf(w, "Metric: %s\n", metric)
	rule(w, "=", 60)
	fmt.Fprintf(w, "Companies analyzed: %d\n", s.Count)
	fmt.Fprintf(w, "Average: %s\n", Abbreviate(s.Mean))
	fmt.Fprintf(w, "Median: %s\n", Abbreviate(s.Median))
	fmt.Fprintf(w, "Standard Deviation: %s\n", Abbreviate(s.StdDev))
	fmt.Fprintf(w, "Min: %s\n", Abbreviate(s.Min))
	fmt.Fprintf(w, "Max: %s\n", Abbreviate(s.Max))
	fmt.Fprintf(w, "25th Percentile: %s\n", Abbreviate(s.P25))
	fmt.Fprintf(w, "75th Percentile: %s\n", Abbreviate(s.P75))
}

// WriteGrowth prints the historical values, period growth, CAGR and stability band.
func WriteGrowth(w io.Writer, g analysis.GrowthReport) {
	rule(w, "=", 60)
	fmt.Fprintf(w, "TIME SERIES ANALYSIS: %s - %s\n", g.Ticker, g.Metric)
	rule(w, "=", 60)
	fmt.Fprintln(w, "HISTORICAL DATA:")
	for _, o := range g.Observations {
		fmt.Fprintf(w, "%d: %s\n", o.Period, Abbreviate(o.Value))
	}

	fmt.Fprintln(w, "\nGROWTH ANALYSIS:")
	for _, p := range g.YearOverYear {
		fmt.Fprintf(w, "%d to %d: %s\n", p.From, p.To, Percent(p.GrowthPercent))
	}
	if g.CAGRPercent != nil && len(g.Observations) > 0 {
		first, last := g.Observations[0], g.Observations[len(g.Observations)-1]
		fmt.Fprintf(w, "\nCAGR (%d-%d): %s\n", first.Period, last.Period, Percent(*g.CAGRPercent))
	}
	if g.AverageGrowthPercent != nil {
		fmt.Fprintf(w, "Average Growth: %s\n", Percent(*g.AverageGrowthPercent))
	}
	if g.Stability != "" {
		fmt.Fprintf(w, "Stability: %s\n", stabilityText(g.Stability))
	}
}

func stabilityText(s analysis.Stability) string {
	switch s {
	case analysis.StabilityHighGrowth:
		return "High growth company"
	case analysis.StabilityModerateGrowth:
		return "Moderate growth company"
	case analysis.StabilityStable:
		return "Stable company"
	default:
		return "Declining company"
	}
}
