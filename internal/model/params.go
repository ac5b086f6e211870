package model

import "math"

// SimulationParameters defines one GBM projection run.
// Units:
// - InitialValue: metric units (e.g. USD of revenue), > 0
// - MeanReturn: mean annual log-return
// - Volatility: annual standard deviation of log-returns, >= 0
// - HorizonSteps: number of annual steps, >= 1
// - PathCount: number of independent paths, >= 1
type SimulationParameters struct {
	InitialValue float64 `json:"initial_value"`
	MeanReturn   float64 `json:"mean_return"`
	Volatility   float64 `json:"volatility"`
	HorizonSteps int     `json:"horizon_steps"`
	PathCount    int     `json:"path_count"`
}

func NewParameters(initial, meanReturn, volatility float64, horizon, paths int) (SimulationParameters, error) {
	p := SimulationParameters{
		InitialValue: initial,
		MeanReturn:   meanReturn,
		Volatility:   volatility,
		HorizonSteps: horizon,
		PathCount:    paths,
	}
	if err := p.Validate(); err != nil {
		return SimulationParameters{}, err
	}
	return p, nil
}

func (p SimulationParameters) Validate() error {
	if p.HorizonSteps < 1 {
		return &InvalidParameterError{Field: "horizon_steps", Value: float64(p.HorizonSteps), Reason: "must be >= 1"}
	}
	if p.PathCount < 1 {
		return &InvalidParameterError{Field: "path_count", Value: float64(p.PathCount), Reason: "must be >= 1"}
	}
	if math.IsNaN(p.Volatility) || math.IsInf(p.Volatility, 0) || p.Volatility < 0 {
		return &InvalidParameterError{Field: "volatility", Value: p.Volatility, Reason: "must be finite and >= 0"}
	}
	if math.IsNaN(p.InitialValue) || math.IsInf(p.InitialValue, 0) || p.InitialValue <= 0 {
		return &InvalidParameterError{Field: "initial_value", Value: p.InitialValue, Reason: "must be finite and > 0"}
	}
	if math.IsNaN(p.MeanReturn) || math.IsInf(p.MeanReturn, 0) {
		return &InvalidParameterError{Field: "mean_return", Value: p.MeanReturn, Reason: "must be finite"}
	}
	return nil
}

// ExpectedTerminal is the theoretical expected terminal value
// InitialValue * exp(MeanReturn * HorizonSteps) of the log-normal recurrence.
func (p SimulationParameters) ExpectedTerminal() float64 {
	return p.InitialValue * math.Exp(p.MeanReturn*float64(p.HorizonSteps))
}
