package models

// SimulationRequest describes one projection run. Exactly one parameter
// source must be set: Scenario, Source, Series or Parameters.
type SimulationRequest struct {
	Scenario   string            `json:"scenario,omitempty"` // built-in or configured preset name
	Source     *SeriesSource     `json:"source,omitempty"`   // stored series, estimated
	Series     *InlineSeries     `json:"series,omitempty"`   // caller-supplied series, estimated
	Parameters *ParametersInput  `json:"parameters,omitempty"`
	Options    SimulationOptions `json:"options,omitempty"`
}

// SeriesSource selects a stored metric series.
type SeriesSource struct {
	Ticker string `json:"ticker" binding:"required"`
	Metric string `json:"metric" binding:"required"`
	Table  string `json:"table,omitempty"` // default: configured table
}

// InlineSeries is a caller-supplied history, ordered by period.
type InlineSeries struct {
	Ticker string    `json:"ticker,omitempty"`
	Metric string    `json:"metric,omitempty"`
	Values []float64 `json:"values,omitempty"`
	// Periods, when given, must match Values in length.
	Periods []int `json:"periods,omitempty"`
}

// ParametersInput fixes the growth parameters directly.
type ParametersInput struct {
	Name         string  `json:"name,omitempty"`
	InitialValue float64 `json:"initial_value"`
	MeanReturn   float64 `json:"mean_return"`
	Volatility   float64 `json:"volatility"`
}

// SimulationOptions shapes the run. Zero values fall back to server defaults.
type SimulationOptions struct {
	HorizonYears int    `json:"horizon_years,omitempty"`
	Paths        int    `json:"paths,omitempty"`
	Seed         uint64 `json:"seed,omitempty"`
	Parallel     bool   `json:"parallel,omitempty"`
	IncludePaths bool   `json:"include_paths,omitempty"` // default: false
}

// CompareRequest runs several variations under shared options.
type CompareRequest struct {
	Options    SimulationOptions     `json:"options,omitempty"`
	Variations []SimulationVariation `json:"variations" binding:"required,min=1,dive"`
}

// SimulationVariation names one run in a comparison. Its own options
// override the shared ones field by field.
type SimulationVariation struct {
	Name string `json:"name" binding:"required"`
	SimulationRequest
}

// RankRequest ranks stored tickers by projected growth of one metric.
type RankRequest struct {
	Metric  string `form:"metric" binding:"required"`
	Tickers string `form:"tickers,omitempty"` // comma-separated; default: all tickers
	Table   string `form:"table,omitempty"`
	Years   int    `form:"years,omitempty"`
	Paths   int    `form:"paths,omitempty"`
	Seed    uint64 `form:"seed,omitempty"`
	Limit   int    `form:"limit,omitempty"` // default: 10
}

// RiskRequest bounds the history used for metric volatility.
type RiskRequest struct {
	Table string `form:"table,omitempty"`
	Years int    `form:"years,omitempty"` // default: 5
}

// SectorRequest selects the cross-section for sector analysis.
type SectorRequest struct {
	Metric string `form:"metric" binding:"required"`
	Year   int    `form:"year" binding:"required"`
	Table  string `form:"table,omitempty"`
}

// HistoryRequest represents query parameters for a growth history
type HistoryRequest struct {
	Metric string `form:"metric" binding:"required"`
	Table  string `form:"table,omitempty"`
}
