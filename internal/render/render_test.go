package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/model"
)

func TestAbbreviate(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		950:        "950",
		1500:       "1.5K",
		-1500:      "-1.5K",
		2300000:    "2.3M",
		1250000000: "1.25B",
	}
	for in, want := range cases {
		assert.Equal(t, want, Abbreviate(in), "input %v", in)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.3%", Percent(12.345))
	assert.Equal(t, "-5.0%", Percent(-5))
}

func TestWriteReport(t *testing.T) {
	f := &forecast.Forecast{
		Name:         "ACME - revenue",
		LatestPeriod: 2023,
		Parameters:   model.SimulationParameters{InitialValue: 1e9, MeanReturn: 0.08, Volatility: 0.15, HorizonSteps: 5, PathCount: 5000},
		Report: model.StatisticsReport{
			Count: 5000, InitialValue: 1e9,
			Mean: 1.5e9, Median: 1.4e9, P5: 9e8, P25: 1.2e9, P75: 1.7e9, P95: 2.2e9,
			Min: 5e8, Max: 4e9, GrowthProbabilityPercent: 82.5,
		},
		Risk: analysis.RiskProfile{DownsidePercent: -10, UpsidePercent: 120, Outlook: model.OutlookHigh},
		Seed: 42,
	}

	var buf bytes.Buffer
	WriteReport(&buf, f)
	out := buf.String()
	assert.Contains(t, out, "MONTE CARLO SIMULATION RESULTS: ACME - revenue")
	assert.Contains(t, out, "Current Value (2023): 1.00B")
	assert.Contains(t, out, "PROJECTION STATISTICS FOR 2028:")
	assert.Contains(t, out, "Median: 1.40B")
	assert.Contains(t, out, "Probability of Growth: 82.5%")
	assert.Contains(t, out, "Downside Risk (5th %ile): -10.0%")
	assert.Contains(t, out, "HIGH confidence in growth")
	assert.NotContains(t, out, "SANITY CHECK")

	f.LatestPeriod = 0
	f.Sanity = &analysis.Sanity{Expected: 1.49e9, Simulated: 1.5e9, DeviationPercent: 0.7, Consistent: true}
	buf.Reset()
	WriteReport(&buf, f)
	out = buf.String()
	assert.Contains(t, out, "Initial Value: 1.00B")
	assert.Contains(t, out, "SANITY CHECK:")
	assert.Contains(t, out, "consistent with theoretical expectations")
}

func TestWriteRanking(t *testing.T) {
	var buf bytes.Buffer
	WriteRanking(&buf, []analysis.RankedReport{
		{Label: "AAA", Report: model.StatisticsReport{InitialValue: 100, Median: 150, GrowthProbabilityPercent: 90}, MedianUpside: 0.5},
	})
	assert.Contains(t, buf.String(), "AAA")
	assert.Contains(t, buf.String(), "50.0%")
	assert.Contains(t, buf.String(), "90.0%")
}

func TestWriteMetricRiskAndSector(t *testing.T) {
	var buf bytes.Buffer
	WriteMetricRisk(&buf, "ACME", []analysis.MetricRisk{{Metric: "revenue", Count: 5, CoefficientOfVariation: 12.5}})
	assert.Contains(t, buf.String(), "revenue")
	assert.Contains(t, buf.String(), "12.5%")

	buf.Reset()
	WriteSector(&buf, "Technology", "revenue", 2023, analysis.SectorSummary{Count: 3, Mean: 2000, Median: 1500})
	assert.Contains(t, buf.String(), "SECTOR ANALYSIS: Technology (2023)")
	assert.Contains(t, buf.String(), "Median: 1.5K")
}

func TestWriteGrowth(t *testing.T) {
	cagr, avg := 16.57, 16.67
	g := analysis.GrowthReport{
		Ticker: "ACME",
		Metric: "revenue",
		Observations: []model.Observation{
			{Period: 2020, Value: 100e6},
			{Period: 2023, Value: 158.4e6},
		},
		YearOverYear:         []analysis.PeriodGrowth{{From: 2020, To: 2021, GrowthPercent: 20}},
		CAGRPercent:          &cagr,
		AverageGrowthPercent: &avg,
		Stability:            analysis.StabilityHighGrowth,
	}
	var buf bytes.Buffer
	WriteGrowth(&buf, g)
	out := buf.String()
	assert.Contains(t, out, "TIME SERIES ANALYSIS: ACME - revenue")
	assert.Contains(t, out, "2020: 100.0M")
	assert.Contains(t, out, "2020 to 2021: 20.0%")
	assert.Contains(t, out, "CAGR (2020-2023): 16.6%")
	assert.Contains(t, out, "High growth company")

	buf.Reset()
	WriteGrowth(&buf, analysis.GrowthReport{Ticker: "X", Metric: "m"})
	assert.NotContains(t, buf.String(), "CAGR")
	assert.NotContains(t, buf.String(), "Stability")
}
