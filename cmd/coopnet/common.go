package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nvandessel/coopnet/internal/config"
	"github.com/nvandessel/coopnet/internal/logging"
	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/store"
	"github.com/nvandessel/coopnet/internal/sweep"
)

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadConfig loads the config file named by --config (or the default one),
// applies environment overrides and then any flags set on cmd, and validates
// the result.
func loadConfig(cmd *cobra.Command) (*config.CoopnetConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over the loaded config. Commands
// register only the flags they use; unregistered names are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.CoopnetConfig) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if changed("db") {
		cfg.Store.Path, _ = flags.GetString("db")
	}
	if changed("nodes") {
		cfg.Network.Nodes, _ = flags.GetInt("nodes")
	}
	if changed("p") {
		cfg.Network.EdgeProbability, _ = flags.GetFloat64("p")
	}
	if changed("seed") {
		cfg.Network.Seed, _ = flags.GetUint64("seed")
	}
	if changed("t-min") {
		cfg.Game.TMin, _ = flags.GetFloat64("t-min")
	}
	if changed("t-max") {
		cfg.Game.TMax, _ = flags.GetFloat64("t-max")
	}
	if changed("samples") {
		cfg.Game.Samples, _ = flags.GetInt("samples")
	}
	if changed("steps") {
		cfg.Simulation.Steps, _ = flags.GetInt("steps")
	}
	if changed("isolated") {
		cfg.Simulation.IsolatedPolicy, _ = flags.GetString("isolated")
	}
	if changed("workers") {
		cfg.Simulation.Workers, _ = flags.GetInt("workers")
	}
	if changed("continue-on-error") {
		cfg.Simulation.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}
}

func addNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().Int("nodes", 0, "Number of agents (default from config: 100)")
	cmd.Flags().Float64("p", 0, "Edge probability (default from config: 0.1)")
	cmd.Flags().Uint64("seed", 0, "Random seed; 0 picks one and reports it")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("steps", 0, "Rounds per run (default from config: 100)")
	cmd.Flags().String("isolated", "", "Policy for agents without neighbors: error or keep")
}

func addSweepFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("t-min", 0, "Smallest temptation payoff (default from config: 1)")
	cmd.Flags().Float64("t-max", 0, "Largest temptation payoff (default from config: 2)")
	cmd.Flags().Int("samples", 0, "Number of T values (default from config: 10)")
	cmd.Flags().Int("workers", 0, "Concurrent runs (default from config: 1)")
	cmd.Flags().Bool("continue-on-error", false, "Record failed runs and keep sweeping")
}

// newLogger builds the stderr logger for cfg.
func newLogger(cmd *cobra.Command, cfg *config.CoopnetConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// newRoundLogger opens the round trace when the level asks for one.
func newRoundLogger(cfg *config.CoopnetConfig) (*logging.RoundLogger, error) {
	dir, err := cfg.LogDir()
	if err != nil {
		return nil, err
	}
	return logging.NewRoundLogger(dir, cfg.Logging.Level), nil
}

// openStore opens the SQLite result store named by cfg.
func openStore(cmd *cobra.Command, cfg *config.CoopnetConfig) (*store.SQLiteStore, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cmd.Context(), path)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return s, nil
}

// generateNetwork resolves the seed and builds the shared network.
func generateNetwork(cfg *config.CoopnetConfig) (*network.Network, uint64, error) {
	seed := sweep.ResolveSeed(cfg.Network.Seed)
	net, err := network.Generate(cfg.Network.Nodes, cfg.Network.EdgeProbability, sweep.NetworkRand(seed))
	if err != nil {
		return nil, 0, err
	}
	return net, seed, nil
}
