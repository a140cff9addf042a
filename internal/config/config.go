// Package config loads the YAML configuration file, including the
// optimizer parameter grid, and applies environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"forexbt/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the optimizer.
type Config struct {
	Storage   Storage   `yaml:"storage"`
	Alpaca    Alpaca    `yaml:"alpaca"`
	Logging   Logging   `yaml:"logging"`
	Optimizer Optimizer `yaml:"optimizer"`

	// Options is the parameter grid: option name to the list of its
	// assignment-sets. String scalars are feature references, numeric
	// scalars are literals.
	Options map[string][]map[string]optionValue `yaml:"options"`
}

// Storage selects and configures the feature-store backend.
type Storage struct {
	// Backend is "sqlite" or "parquet".
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Optimizer holds the run parameters for a prepare/optimize pass.
type Optimizer struct {
	Symbol        string  `yaml:"symbol"`
	Strategy      string  `yaml:"strategy"`
	Group         int     `yaml:"group"`
	GroupCount    int     `yaml:"group_count"`
	Investment    float64 `yaml:"investment"`
	Profitability float64 `yaml:"profitability"`
	StartDate     string  `yaml:"start_date"`
	EndDate       string  `yaml:"end_date"`
}

// optionValue wraps a domain.OptionValue for YAML decoding: a string node
// becomes a feature Reference, a numeric node a Literal.
type optionValue struct {
	value domain.OptionValue
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *optionValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!str":
		o.value = domain.Reference(node.Value)
		return nil
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("option value %q: %w", node.Value, err)
		}
		o.value = domain.Literal(f)
		return nil
	default:
		return fmt.Errorf("option value must be a feature name or a number, got %s", node.Tag)
	}
}

// OptionGrid converts the parsed options into the domain representation
// consumed by the configuration-space builder.
func (c *Config) OptionGrid() map[string]domain.ConfigurationOption {
	grid := make(map[string]domain.ConfigurationOption, len(c.Options))
	for name, assignments := range c.Options {
		option := make(domain.ConfigurationOption, len(assignments))
		for i, assignment := range assignments {
			set := make(domain.Assignment, len(assignment))
			for key, v := range assignment {
				set[key] = v.value
			}
			option[i] = set
		}
		grid[name] = option
	}
	return grid
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
