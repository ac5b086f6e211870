package model

import "sort"

// Observation is one (period, value) point of a historical series.
// Period is usually a fiscal year.
type Observation struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// HistoricalSeries matches the JSON shape of a stored or exported series.
//
// Example:
//
//	{
//	  "ticker": "AAPL",
//	  "metric": "revenue",
//	  "observations": [{"period": 2021, "value": 365817000000}, ...]
//	}
type HistoricalSeries struct {
	Ticker       string        `json:"ticker,omitempty"`
	Metric       string        `json:"metric,omitempty"`
	Observations []Observation `json:"observations"`
}

// NewSeries builds an unlabeled series from plain values, numbering periods from 0.
func NewSeries(values ...float64) HistoricalSeries {
	obs := make([]Observation, len(values))
	for i, v := range values {
		obs[i] = Observation{Period: i, Value: v}
	}
	return HistoricalSeries{Observations: obs}
}

func (s HistoricalSeries) Len() int { return len(s.Observations) }

// Values returns the observation values in series order.
func (s HistoricalSeries) Values() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Value
	}
	return out
}

// Latest returns the last observation. ok is false for an empty series.
func (s HistoricalSeries) Latest() (Observation, bool) {
	if len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// SortByPeriod orders observations ascending by period in place.
func (s HistoricalSeries) SortByPeriod() {
	sort.SliceStable(s.Observations, func(i, j int) bool {
		return s.Observations[i].Period < s.Observations[j].Period
	})
}
