package scenario

import (
	"sort"
	"strings"

	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/model"
)

const (
	DefaultHorizon = 5
	DefaultPaths   = 5000
)

// Builtin returns the reference test cases: a stable grower, a
// high-volatility tech name and a defensive name.
func Builtin() []*Fixed {
	return []*Fixed{
		{
			Label:       "TEST1",
			Description: "Stable Growth Company",
			Params:      model.SimulationParameters{InitialValue: 1000, MeanReturn: 0.08, Volatility: 0.15, HorizonSteps: DefaultHorizon, PathCount: DefaultPaths},
		},
		{
			Label:       "TEST2",
			Description: "High Volatility Tech Stock",
			Params:      model.SimulationParameters{InitialValue: 500, MeanReturn: 0.12, Volatility: 0.40, HorizonSteps: DefaultHorizon, PathCount: DefaultPaths},
		},
		{
			Label:       "TEST3",
			Description: "Defensive Stock",
			Params:      model.SimulationParameters{InitialValue: 2000, MeanReturn: 0.04, Volatility: 0.10, HorizonSteps: DefaultHorizon, PathCount: DefaultPaths},
		},
	}
}

// FromConfig merges config presets over the builtin set. A preset with a
// builtin's name replaces it. Result is sorted by name.
func FromConfig(cfg *config.Config) []*Fixed {
	byName := map[string]*Fixed{}
	for _, f := range Builtin() {
		byName[strings.ToUpper(f.Label)] = f
	}
	if cfg != nil {
		for _, sc := range cfg.Scenarios {
			byName[strings.ToUpper(sc.Name)] = &Fixed{
				Label:       sc.Name,
				Description: sc.Description,
				Params:      sc.ToModelParams(cfg.Simulation),
			}
		}
	}
	out := make([]*Fixed, 0, len(byName))
	for _, f := range byName {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Lookup finds a scenario by case-insensitive name.
func Lookup(all []*Fixed, name string) (*Fixed, bool) {
	for _, f := range all {
		if strings.EqualFold(f.Label, name) {
			return f, true
		}
	}
	return nil, false
}
