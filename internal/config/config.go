package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"montecarlo-forecast/internal/model"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). Environment variables
// listed in the env tags override file values.
type Config struct {
	// Optional: load scenario presets from a separate YAML (e.g. examples/scenarios.yaml).
	// Presets in Scenarios with the same name override those from ScenarioFile.
	ScenarioFile string           `yaml:"scenario_file"`
	Database     DatabaseConfig   `yaml:"database"`
	Simulation   SimulationConfig `yaml:"simulation"`
	Scenarios    []ScenarioConfig `yaml:"scenarios"`
	Edgar        EdgarConfig      `yaml:"edgar"`
	API          APIConfig        `yaml:"api"`
	Log          LogConfig        `yaml:"log"`
}

type DatabaseConfig struct {
	Path  string `yaml:"path" env:"FORECAST_DB_PATH"`
	Table string `yaml:"table" env:"FORECAST_TABLE"`
}

type SimulationConfig struct {
	HorizonYears int `yaml:"horizon_years" env:"FORECAST_YEARS"`
	Paths        int `yaml:"paths" env:"FORECAST_PATHS"`
	// Seed fixes the random stream; 0 draws a fresh seed per session.
	Seed    uint64 `yaml:"seed" env:"FORECAST_SEED"`
	Workers int    `yaml:"workers" env:"FORECAST_WORKERS"`
}

type ScenarioConfig struct {
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	InitialValue float64 `yaml:"initial_value"`
	MeanReturn   float64 `yaml:"mean_return"`
	Volatility   float64 `yaml:"volatility"`
	HorizonYears int     `yaml:"horizon_years"`
	Paths        int     `yaml:"paths"`
}

type EdgarConfig struct {
	BaseURL   string        `yaml:"base_url" env:"EDGAR_BASE_URL"`
	UserAgent string        `yaml:"user_agent" env:"EDGAR_USER_AGENT"`
	CacheTTL  time.Duration `yaml:"cache_ttl" env:"EDGAR_CACHE_TTL"`
}

type APIConfig struct {
	Port           string   `yaml:"port" env:"API_PORT"`
	Env            string   `yaml:"env" env:"API_ENV"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"API_ALLOWED_ORIGINS" envSeparator:","`
	// ResultTTL bounds how long simulation runs stay retrievable by id.
	ResultTTL time.Duration `yaml:"result_ttl" env:"API_RESULT_TTL"`
	// StaticDir holds a built web UI; skipped when missing.
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"FORECAST_LOG_LEVEL"`
	Format string `yaml:"format" env:"FORECAST_LOG_FORMAT"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be used verbatim as a table or column name.
func ValidIdentifier(s string) bool { return identRe.MatchString(s) }

func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path (optional), applies environment overrides and defaults, and validates.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it or read the environment.
// An empty path yields an empty config.
func LoadUnchecked(path string) (*Config, error) {
	var c Config
	if path == "" {
		return &c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If scenario_file is set, load it and let inline presets override it by name.
	if c.ScenarioFile != "" {
		scenarioPath := c.ScenarioFile
		if !filepath.IsAbs(scenarioPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), scenarioPath)
			if _, err := os.Stat(cand); err == nil {
				scenarioPath = cand
			}
		}
		loaded, err := LoadScenarioFile(scenarioPath)
		if err != nil {
			return nil, err
		}
		c.Scenarios = MergeScenarios(loaded, c.Scenarios)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "financial_data.db"
	}
	if c.Database.Table == "" {
		c.Database.Table = "financials"
	}
	if c.Simulation.HorizonYears == 0 {
		c.Simulation.HorizonYears = 5
	}
	if c.Simulation.Paths == 0 {
		c.Simulation.Paths = 5000
	}
	if c.Edgar.BaseURL == "" {
		c.Edgar.BaseURL = "https://data.sec.gov"
	}
	if c.Edgar.CacheTTL == 0 {
		c.Edgar.CacheTTL = time.Hour
	}
	if c.API.Port == "" {
		c.API.Port = "8080"
	}
	if c.API.StaticDir == "" {
		c.API.StaticDir = "./web/dist"
	}
	if c.API.ResultTTL == 0 {
		c.API.ResultTTL = 30 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if !ValidIdentifier(c.Database.Table) {
		return fmt.Errorf("database.table %q is not a valid identifier", c.Database.Table)
	}
	if c.Simulation.HorizonYears < 1 {
		return errors.New("simulation.horizon_years must be >= 1")
	}
	if c.Simulation.Paths < 1 {
		return errors.New("simulation.paths must be >= 1")
	}
	if c.Simulation.Workers < 0 {
		return errors.New("simulation.workers must be >= 0")
	}
	seen := map[string]bool{}
	for i, sc := range c.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenarios[%d].name is required", i)
		}
		// Scenario lookup ignores case, so names must be unique ignoring case too.
		key := strings.ToUpper(sc.Name)
		if seen[key] {
			return fmt.Errorf("scenario %q defined twice", sc.Name)
		}
		seen[key] = true
		// Validate scenario params by constructing model parameters.
		if err := sc.ToModelParams(c.Simulation).Validate(); err != nil {
			return fmt.Errorf("scenario %q invalid: %w", sc.Name, err)
		}
	}
	return nil
}

// ToModelParams falls back to the simulation defaults for horizon and path count.
func (s ScenarioConfig) ToModelParams(defaults SimulationConfig) model.SimulationParameters {
	p := model.SimulationParameters{
		InitialValue: s.InitialValue,
		MeanReturn:   s.MeanReturn,
		Volatility:   s.Volatility,
		HorizonSteps: s.HorizonYears,
		PathCount:    s.Paths,
	}
	if p.HorizonSteps == 0 {
		p.HorizonSteps = defaults.HorizonYears
	}
	if p.PathCount == 0 {
		p.PathCount = defaults.Paths
	}
	return p
}

type scenarioFileWrapper struct {
	Scenarios []ScenarioConfig `yaml:"scenarios"`
}

func LoadScenarioFile(path string) ([]ScenarioConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w scenarioFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return w.Scenarios, nil
}

// MergeScenarios appends override presets to base, replacing base entries with the same name.
func MergeScenarios(base, override []ScenarioConfig) []ScenarioConfig {
	out := make([]ScenarioConfig, 0, len(base)+len(override))
	idx := map[string]int{}
	for _, sc := range base {
		idx[strings.ToUpper(sc.Name)] = len(out)
		out = append(out, sc)
	}
	for _, sc := range override {
		key := strings.ToUpper(sc.Name)
		if i, ok := idx[key]; ok {
			out[i] = sc
			continue
		}
		idx[key] = len(out)
		out = append(out, sc)
	}
	return out
}

// MergeSimulation overlays non-zero fields from override onto base.
// This is used when a request or flag set only changes part of the run shape.
func MergeSimulation(base, override SimulationConfig) SimulationConfig {
	out := base
	if override.HorizonYears != 0 {
		out.HorizonYears = override.HorizonYears
	}
	if override.Paths != 0 {
		out.Paths = override.Paths
	}
	if override.Seed != 0 {
		out.Seed = override.Seed
	}
	if override.Workers != 0 {
		out.Workers = override.Workers
	}
	return out
}
