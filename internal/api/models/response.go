package models

import (
	"montecarlo-forecast/internal/analysis"
	"montecarlo-forecast/internal/forecast"
	"montecarlo-forecast/internal/model"
)

// SimulationResponse represents one completed run.
type SimulationResponse struct {
	ID       string             `json:"id"`
	Status   string             `json:"status"`
	Forecast *forecast.Forecast `json:"forecast"`
	Estimate *EstimateInfo      `json:"estimate,omitempty"`
	Paths    []model.Path       `json:"paths,omitempty"`
}

// EstimateInfo summarizes parameter estimation for historical runs.
type EstimateInfo struct {
	MeanReturn   float64 `json:"mean_return"`
	Volatility   float64 `json:"volatility"`
	ReturnsUsed  int     `json:"returns_used"`
	Skipped      int     `json:"skipped"`
	LatestPeriod int     `json:"latest_period"`
}

// PathPoint is one (path, step) value of a stored run.
type PathPoint struct {
	Path      int     `json:"path"`
	Step      int     `json:"step"`
	Value     float64 `json:"value"`
	CumReturn float64 `json:"cum_return"`
}

type PathsResponse struct {
	ID     string      `json:"id"`
	Points []PathPoint `json:"points"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult      `json:"comparison"`
	Ranking    []analysis.RankedReport `json:"ranking"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name     string             `json:"name"`
	Forecast *forecast.Forecast `json:"forecast"`
}

// RankResponse represents the response from ranking tickers
type RankResponse struct {
	Metric   string          `json:"metric"`
	Rankings []Ranking       `json:"rankings"`
	Skipped  []SkippedTicker `json:"skipped,omitempty"`
}

// Ranking represents one ranked ticker
type Ranking struct {
	Rank                     int           `json:"rank"`
	Ticker                   string        `json:"ticker"`
	CurrentValue             float64       `json:"current_value"`
	Median                   float64       `json:"median"`
	P5                       float64       `json:"p5"`
	P95                      float64       `json:"p95"`
	MedianUpside             float64       `json:"median_upside"`
	GrowthProbabilityPercent float64       `json:"growth_probability_percent"`
	Outlook                  model.Outlook `json:"outlook"`
}

// SkippedTicker explains why a ticker could not be projected.
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

type RiskResponse struct {
	Ticker  string                `json:"ticker"`
	Years   int                   `json:"years"`
	Metrics []analysis.MetricRisk `json:"metrics"`
}

type SectorResponse struct {
	Sector    string                 `json:"sector"`
	Metric    string                 `json:"metric"`
	Year      int                    `json:"year"`
	Summary   analysis.SectorSummary `json:"summary"`
	Companies map[string]float64     `json:"companies"`
}

// ScenarioInfo represents information about a scenario preset
type ScenarioInfo struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Parameters  model.SimulationParameters `json:"parameters"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
