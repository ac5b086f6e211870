package model

// Path is one simulated trajectory. Index 0 is the initial value, index t the
// projected value after t annual steps. Paths are never mutated after creation.
type Path []float64

// Terminal returns the last value of the path.
func (p Path) Terminal() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// SimulationResult holds every path of one run. It is owned by the caller.
type SimulationResult struct {
	Parameters SimulationParameters
	Paths      []Path
}

// TerminalValues collects the last value of every path, in path order.
func (r *SimulationResult) TerminalValues() []float64 {
	if r == nil {
		return nil
	}
	out := make([]float64, len(r.Paths))
	for i, p := range r.Paths {
		out[i] = p.Terminal()
	}
	return out
}

// StatisticsReport summarizes the terminal values of a run.
// Percentiles use nearest-rank selection on the sorted terminal values.
type StatisticsReport struct {
	Count        int     `json:"count"`
	InitialValue float64 `json:"initial_value"`

	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P5     float64 `json:"p5"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`

	GrowthProbabilityPercent float64 `json:"growth_probability_percent"`
}
