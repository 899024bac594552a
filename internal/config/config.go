package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete configuration for one pipeline run. Values are
// resolved in three layers: built-in defaults, then the YAML config file,
// then PRICECAST_* environment variables.
type Config struct {
	Input    InputConfig    `yaml:"input" envconfig:"INPUT"`
	Split    SplitConfig    `yaml:"split" envconfig:"SPLIT"`
	Model    ModelConfig    `yaml:"model" envconfig:"MODEL"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig locates the source spreadsheet and its columns.
type InputConfig struct {
	File        string `yaml:"file" envconfig:"FILE"`
	Sheet       string `yaml:"sheet" envconfig:"SHEET"` // empty: discover by headers
	DateColumn  string `yaml:"date_column" envconfig:"DATE_COLUMN"`
	ValueColumn string `yaml:"value_column" envconfig:"VALUE_COLUMN"`
	// GapPolicy controls what happens when the aggregated series has a
	// calendar-month gap: "fail" or "warn".
	GapPolicy string `yaml:"gap_policy" envconfig:"GAP_POLICY"`
}

// SplitConfig defines the train/test boundary dates as YYYY-MM-DD strings.
// Training rows are strictly before Cutoff; test rows are in
// [Cutoff, TestEnd] inclusive.
type SplitConfig struct {
	Cutoff  string `yaml:"cutoff" envconfig:"CUTOFF"`
	TestEnd string `yaml:"test_end" envconfig:"TEST_END"`

	cutoffDate  time.Time
	testEndDate time.Time
}

// CutoffDate returns the parsed cutoff boundary. Valid after Load.
func (s SplitConfig) CutoffDate() time.Time { return s.cutoffDate }

// TestEndDate returns the parsed inclusive test window end. Valid after Load.
func (s SplitConfig) TestEndDate() time.Time { return s.testEndDate }

// ModelConfig holds the gradient boosting hyperparameters and the feature
// mode ("lags" for the lag/calendar feature set, "value" for the degenerate
// curve fit on the target itself).
type ModelConfig struct {
	Iterations   int     `yaml:"iterations" envconfig:"ITERATIONS"`
	LearningRate float64 `yaml:"learning_rate" envconfig:"LEARNING_RATE"`
	MaxDepth     int     `yaml:"max_depth" envconfig:"MAX_DEPTH"`
	MinLeaf      int     `yaml:"min_leaf" envconfig:"MIN_LEAF"`
	Lambda       float64 `yaml:"lambda" envconfig:"LAMBDA"`
	Features     string  `yaml:"features" envconfig:"FEATURES"`
}

// ForecastConfig selects the extrapolation strategy and horizon.
type ForecastConfig struct {
	Horizon  int    `yaml:"horizon" envconfig:"HORIZON"`
	Strategy string `yaml:"strategy" envconfig:"STRATEGY"` // "recursive" or "carry"
}

// OutputConfig locates the CSV export and the rendered chart. Relative
// paths are resolved against the executable directory by Paths.
type OutputConfig struct {
	CSV   string `yaml:"csv" envconfig:"CSV"`
	Chart string `yaml:"chart" envconfig:"CHART"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"` // console, file, both
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the built-in configuration. The literal cutoff and test
// window mirror the historical analysis this pipeline replaced.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			DateColumn:  "Date",
			ValueColumn: "Block Average",
			GapPolicy:   GapPolicyFail,
		},
		Split: SplitConfig{
			Cutoff:  "2023-01-01",
			TestEnd: "2024-06-01",
		},
		Model: ModelConfig{
			Iterations:   200,
			LearningRate: 0.05,
			MaxDepth:     3,
			MinLeaf:      2,
			Lambda:       1.0,
			Features:     FeaturesLags,
		},
		Forecast: ForecastConfig{
			Horizon:  6,
			Strategy: StrategyRecursive,
		},
		Output: OutputConfig{
			CSV:   "data/reports/forecast.csv",
			Chart: "data/reports/forecast.png",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/pricecast.log",
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at configPath (if it exists), overlaid by PRICECAST_* environment
// variables, overlaid by any overrides (command-line flags), then validated.
func Load(configPath string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		case os.IsNotExist(err):
			// optional file; fall through to env + defaults
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// Environment variables take precedence over the file.
	if err := envconfig.Process("PRICECAST", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field consistency and parses the boundary dates.
func (c *Config) Validate() error {
	if c.Input.File == "" {
		return fmt.Errorf("input.file is required")
	}
	switch c.Input.GapPolicy {
	case GapPolicyFail, GapPolicyWarn:
	default:
		return fmt.Errorf("input.gap_policy must be %q or %q, got %q", GapPolicyFail, GapPolicyWarn, c.Input.GapPolicy)
	}

	cutoff, err := time.ParseInLocation(dateLayout, c.Split.Cutoff, time.UTC)
	if err != nil {
		return fmt.Errorf("split.cutoff: invalid date %q: %w", c.Split.Cutoff, err)
	}
	testEnd, err := time.ParseInLocation(dateLayout, c.Split.TestEnd, time.UTC)
	if err != nil {
		return fmt.Errorf("split.test_end: invalid date %q: %w", c.Split.TestEnd, err)
	}
	if !testEnd.After(cutoff) {
		return fmt.Errorf("split.test_end %s must be after split.cutoff %s", c.Split.TestEnd, c.Split.Cutoff)
	}
	c.Split.cutoffDate = cutoff
	c.Split.testEndDate = testEnd

	if c.Model.Iterations <= 0 {
		return fmt.Errorf("model.iterations must be positive, got %d", c.Model.Iterations)
	}
	if c.Model.LearningRate <= 0 || c.Model.LearningRate > 1 {
		return fmt.Errorf("model.learning_rate must be in (0, 1], got %g", c.Model.LearningRate)
	}
	if c.Model.MaxDepth <= 0 {
		return fmt.Errorf("model.max_depth must be positive, got %d", c.Model.MaxDepth)
	}
	if c.Model.Lambda < 0 {
		return fmt.Errorf("model.lambda must be non-negative, got %g", c.Model.Lambda)
	}
	switch c.Model.Features {
	case FeaturesLags, FeaturesValue:
	default:
		return fmt.Errorf("model.features must be %q or %q, got %q", FeaturesLags, FeaturesValue, c.Model.Features)
	}

	if c.Forecast.Horizon <= 0 {
		return fmt.Errorf("forecast.horizon must be positive, got %d", c.Forecast.Horizon)
	}
	switch c.Forecast.Strategy {
	case StrategyRecursive, StrategyCarry:
	default:
		return fmt.Errorf("forecast.strategy must be %q or %q, got %q", StrategyRecursive, StrategyCarry, c.Forecast.Strategy)
	}

	// The strategies are tied to their feature sets: recursive feedback
	// needs the lag inputs, carry replays a bare value. Mixing them would
	// feed the model the wrong input width.
	if c.Forecast.Strategy == StrategyRecursive && c.Model.Features != FeaturesLags {
		return fmt.Errorf("forecast.strategy %q requires model.features %q", StrategyRecursive, FeaturesLags)
	}
	if c.Forecast.Strategy == StrategyCarry && c.Model.Features != FeaturesValue {
		return fmt.Errorf("forecast.strategy %q requires model.features %q", StrategyCarry, FeaturesValue)
	}

	if c.Output.CSV == "" {
		return fmt.Errorf("output.csv is required")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("logging.output must be console, file, or both, got %q", c.Logging.Output)
	}

	return nil
}
