package montecarlo

import "montecarlo-forecast/internal/model"

// PathRow is one (path, step) point of a run.
// This is the flat export shape of a simulation result.
type PathRow struct {
	Path int
	Step int

	Value float64

	// CumReturn is Value/InitialValue - 1.
	CumReturn float64
}

// Rows flattens a result path by path, step by step.
func Rows(result *model.SimulationResult) []PathRow {
	if result == nil {
		return nil
	}
	n := 0
	for _, p := range result.Paths {
		n += len(p)
	}
	rows := make([]PathRow, 0, n)
	for i, p := range result.Paths {
		for t, v := range p {
			rows = append(rows, PathRow{
				Path:      i,
				Step:      t,
				Value:     v,
				CumReturn: v/p[0] - 1,
			})
		}
	}
	return rows
}
