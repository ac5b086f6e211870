package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "financial_data.db", c.Database.Path)
	assert.Equal(t, "financials", c.Database.Table)
	assert.Equal(t, 5, c.Simulation.HorizonYears)
	assert.Equal(t, 5000, c.Simulation.Paths)
	assert.Equal(t, "https://data.sec.gov", c.Edgar.BaseURL)
	assert.Equal(t, time.Hour, c.Edgar.CacheTTL)
	assert.Equal(t, "8080", c.API.Port)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoad_FileWithScenarioFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scenarios.yaml", `
scenarios:
  - name: BULL
    initial_value: 100
    mean_return: 0.2
    volatility: 0.3
  - name: BEAR
    initial_value: 100
    mean_return: -0.1
    volatility: 0.25
`)
	cfgPath := writeFile(t, dir, "config.yaml", `
scenario_file: scenarios.yaml
database:
  path: data/fin.db
  table: income_statements
simulation:
  horizon_years: 3
  paths: 1000
  seed: 42
edgar:
  cache_ttl: 10m
scenarios:
  - name: BEAR
    initial_value: 200
    mean_return: -0.05
    volatility: 0.2
    paths: 50
`)

	c, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "income_statements", c.Database.Table)
	assert.Equal(t, uint64(42), c.Simulation.Seed)
	assert.Equal(t, 10*time.Minute, c.Edgar.CacheTTL)
	require.Len(t, c.Scenarios, 2)
	assert.Equal(t, "BULL", c.Scenarios[0].Name)
	assert.Equal(t, 200.0, c.Scenarios[1].InitialValue)

	p := c.Scenarios[1].ToModelParams(c.Simulation)
	assert.Equal(t, 3, p.HorizonSteps)
	assert.Equal(t, 50, p.PathCount)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "simulation:\n  paths: 1000\n")

	t.Setenv("FORECAST_PATHS", "250")
	t.Setenv("FORECAST_TABLE", "ratios")
	t.Setenv("API_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	c, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 250, c.Simulation.Paths)
	assert.Equal(t, "ratios", c.Database.Table)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.API.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	c.Database.Table = "financials; DROP TABLE x"
	assert.Error(t, c.Validate())

	c = Default()
	c.Scenarios = []ScenarioConfig{{Name: "bad", InitialValue: 100, Volatility: -1}}
	assert.ErrorContains(t, c.Validate(), "bad")

	c = Default()
	c.Scenarios = []ScenarioConfig{{Name: "x", InitialValue: 1}, {Name: "x", InitialValue: 1}}
	assert.ErrorContains(t, c.Validate(), "defined twice")

	c = Default()
	c.Scenarios = []ScenarioConfig{{Name: "test1", InitialValue: 1}, {Name: "TEST1", InitialValue: 2}}
	assert.ErrorContains(t, c.Validate(), "defined twice")

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestMergeSimulation(t *testing.T) {
	base := SimulationConfig{HorizonYears: 5, Paths: 5000, Seed: 1, Workers: 2}
	out := MergeSimulation(base, SimulationConfig{Paths: 100})
	assert.Equal(t, SimulationConfig{HorizonYears: 5, Paths: 100, Seed: 1, Workers: 2}, out)
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("net_income"))
	assert.True(t, ValidIdentifier("_x1"))
	assert.False(t, ValidIdentifier("1x"))
	assert.False(t, ValidIdentifier("revenue)"))
	assert.False(t, ValidIdentifier(""))
}

func TestLoadUnchecked_ExampleConfig(t *testing.T) {
	c, err := LoadUnchecked(filepath.Join("..", "..", "examples", "config.yaml"))
	require.NoError(t, err)
	c.applyDefaults()
	require.NoError(t, c.Validate())

	names := make([]string, len(c.Scenarios))
	for i, sc := range c.Scenarios {
		names[i] = sc.Name
	}
	assert.ElementsMatch(t, []string{"STARTUP", "DECLINER", "UTILITY"}, names)
	assert.Equal(t, uint64(42), c.Simulation.Seed)
	assert.Equal(t, 30*time.Minute, c.API.ResultTTL)
	assert.Equal(t, "./web/dist", c.API.StaticDir)
}

func TestMergeScenarios_IgnoresCase(t *testing.T) {
	merged := MergeScenarios(
		[]ScenarioConfig{{Name: "bull", InitialValue: 1}, {Name: "BEAR", InitialValue: 2}},
		[]ScenarioConfig{{Name: "BULL", InitialValue: 10}},
	)
	require.Len(t, merged, 2)
	assert.Equal(t, "BULL", merged[0].Name)
	assert.Equal(t, 10.0, merged[0].InitialValue)
}
