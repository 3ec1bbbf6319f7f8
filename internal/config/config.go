// Package config provides unified configuration loading for coopnet.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/simulation"
	"gopkg.in/yaml.v3"
)

// CoopnetConfig contains all coopnet configuration settings.
type CoopnetConfig struct {
	// Network controls how the shared topology is generated.
	Network NetworkConfig `json:"network" yaml:"network"`

	// Game controls the (T, S) parameter sweep.
	Game GameConfig `json:"game" yaml:"game"`

	// Simulation controls each run of the sweep.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Store configures where saved sweeps are kept.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational logging and round tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// NetworkConfig configures the Erdős–Rényi network.
type NetworkConfig struct {
	// Nodes is the number of agents. Must be positive.
	Nodes int `json:"nodes" yaml:"nodes"`

	// EdgeProbability is the chance that any pair of nodes is linked.
	// Range: 0.0 to 1.0
	EdgeProbability float64 `json:"edge_probability" yaml:"edge_probability"`

	// Seed drives network generation and every run of the sweep.
	// 0 picks a fresh seed per invocation; the chosen seed is reported.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// GameConfig configures the payoff sweep. T is spaced evenly over
// [TMin, TMax] and S = 2 - T for each sample.
type GameConfig struct {
	TMin    float64 `json:"t_min" yaml:"t_min"`
	TMax    float64 `json:"t_max" yaml:"t_max"`
	Samples int     `json:"samples" yaml:"samples"`
}

// SimulationConfig configures individual runs.
type SimulationConfig struct {
	// Steps is the number of rounds per run.
	Steps int `json:"steps" yaml:"steps"`

	// IsolatedPolicy is "error" (default) or "keep".
	IsolatedPolicy string `json:"isolated_policy" yaml:"isolated_policy"`

	// Workers bounds how many runs execute at once. 0 or 1 runs the sweep
	// sequentially.
	Workers int `json:"workers" yaml:"workers"`

	// ContinueOnError records a failed run and moves on to the next pair
	// instead of aborting the sweep.
	ContinueOnError bool `json:"continue_on_error" yaml:"continue_on_error"`
}

// StoreConfig configures the SQLite result store.
type StoreConfig struct {
	// Path is the database file. Supports ${VAR} and a leading ~/.
	Path string `json:"path" yaml:"path"`
}

// LoggingConfig configures coopnet's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables round tracing to <dir>/rounds.jsonl.
	// "trace" additionally includes the full strategy assignment per round.
	Level string `json:"level" yaml:"level"`

	// Dir is where round traces are written. Defaults to ~/.coopnet.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Default returns a CoopnetConfig matching the reference experiment:
// 100 nodes, p = 0.1, T over [1, 2] in 10 samples, 100 rounds per run.
func Default() *CoopnetConfig {
	return &CoopnetConfig{
		Network: NetworkConfig{
			Nodes:           100,
			EdgeProbability: 0.1,
		},
		Game: GameConfig{
			TMin:    game.DefaultTMin,
			TMax:    game.DefaultTMax,
			Samples: game.DefaultSamples,
		},
		Simulation: SimulationConfig{
			Steps:          100,
			IsolatedPolicy: "error",
			Workers:        1,
		},
		Store: StoreConfig{
			Path: filepath.Join("~", ".coopnet", "coopnet.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.coopnet/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".coopnet", "config.yaml"), nil
}

// Load loads configuration from the default location and environment variables.
// Order: defaults -> ~/.coopnet/config.yaml -> environment variables
func Load() (*CoopnetConfig, error) {
	return LoadPath("")
}

// LoadPath is like Load but reads path instead of the default file when
// path is non-empty. An explicit path that does not exist is an error.
func LoadPath(path string) (*CoopnetConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	} else if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*CoopnetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)
	config.Logging.Dir = expandEnvVars(config.Logging.Dir)

	return config, nil
}

// Marshal renders the config as YAML.
func (c *CoopnetConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks that the configuration is valid.
func (c *CoopnetConfig) Validate() error {
	if c.Network.Nodes <= 0 {
		return fmt.Errorf("nodes must be positive, got %d", c.Network.Nodes)
	}

	if c.Network.EdgeProbability < 0 || c.Network.EdgeProbability > 1 {
		return fmt.Errorf("edge_probability must be between 0 and 1, got %f", c.Network.EdgeProbability)
	}

	if c.Game.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", c.Game.Samples)
	}

	if c.Game.TMin > c.Game.TMax {
		return fmt.Errorf("t_min (%v) must not exceed t_max (%v)", c.Game.TMin, c.Game.TMax)
	}

	if c.Simulation.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Simulation.Steps)
	}

	if c.Simulation.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Simulation.Workers)
	}

	if _, err := simulation.ParseIsolatedPolicy(c.Simulation.IsolatedPolicy); err != nil {
		return fmt.Errorf("invalid isolated_policy: %s (valid: error, keep)", c.Simulation.IsolatedPolicy)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Policy returns the parsed isolated-node policy.
func (c *CoopnetConfig) Policy() simulation.IsolatedPolicy {
	p, _ := simulation.ParseIsolatedPolicy(c.Simulation.IsolatedPolicy)
	return p
}

// Sweep returns the (T, S) pairs described by the game section.
func (c *CoopnetConfig) Sweep() ([]game.Params, error) {
	return game.Sweep(c.Game.TMin, c.Game.TMax, c.Game.Samples)
}

// StorePath returns the database path with a leading ~/ expanded.
func (c *CoopnetConfig) StorePath() (string, error) {
	return expandHome(c.Store.Path)
}

// LogDir returns the round trace directory, defaulting to ~/.coopnet.
func (c *CoopnetConfig) LogDir() (string, error) {
	if c.Logging.Dir != "" {
		return expandHome(c.Logging.Dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".coopnet"), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *CoopnetConfig) {
	if v := os.Getenv("COOPNET_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Network.Nodes = n
		}
	}
	if v := os.Getenv("COOPNET_EDGE_PROBABILITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Network.EdgeProbability = f
		}
	}
	if v := os.Getenv("COOPNET_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Network.Seed = n
		}
	}

	if v := os.Getenv("COOPNET_T_MIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Game.TMin = f
		}
	}
	if v := os.Getenv("COOPNET_T_MAX"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Game.TMax = f
		}
	}
	if v := os.Getenv("COOPNET_SAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Game.Samples = n
		}
	}

	if v := os.Getenv("COOPNET_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Steps = n
		}
	}
	if v := os.Getenv("COOPNET_ISOLATED_POLICY"); v != "" {
		config.Simulation.IsolatedPolicy = v
	}
	if v := os.Getenv("COOPNET_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
		}
	}
	if v := os.Getenv("COOPNET_CONTINUE_ON_ERROR"); v != "" {
		config.Simulation.ContinueOnError = v == "true" || v == "1"
	}

	if v := os.Getenv("COOPNET_DB"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("COOPNET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("COOPNET_LOG_DIR"); v != "" {
		config.Logging.Dir = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

// expandHome replaces a leading ~ path element with the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], string(filepath.Separator))), nil
}
