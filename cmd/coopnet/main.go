package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by the release build via -ldflags.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coopnet",
		Short: "Cooperation dynamics on random networks",
		Long: `coopnet simulates the spread of cooperation among agents playing the
prisoner's dilemma on an Erdős–Rényi network.

Each round every agent plays all of its neighbors, then copies a random
neighbor's strategy if that neighbor earned strictly more. A sweep runs one
simulation per temptation payoff T (with S = 2 - T) on a single shared
network and reports the fraction of cooperators over time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.coopnet/config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace")
	rootCmd.PersistentFlags().String("db", "", "Result database path (default ~/.coopnet/coopnet.db)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSimulateCmd(),
		newGraphCmd(),
		newSweepsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}
