package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/logging"
	"github.com/nvandessel/coopnet/internal/simulation"
	"github.com/nvandessel/coopnet/internal/sweep"
	"github.com/nvandessel/coopnet/internal/visualization"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a single simulation for one (T, S) pair",
		Long: `Generate a network and run one simulation with the given payoffs,
printing the cooperator fraction after every round.

Examples:
  coopnet simulate --t 1.5 --s 0.5
  coopnet simulate --t 1.2 --s 0.8 --nodes 50 --steps 20 --seed 7
  coopnet simulate --t 2 --s -0.5 --nodes 4 --p 1 --initial CCDD`,
		RunE: runSimulate,
	}

	addNetworkFlags(cmd)
	addRunFlags(cmd)
	cmd.Flags().Float64("t", 0, "Temptation payoff (defector against cooperator)")
	cmd.Flags().Float64("s", 0, "Sucker payoff (cooperator against defector)")
	cmd.Flags().String("initial", "", "Initial strategies as one C/D letter per node (default random)")
	cmd.MarkFlagRequired("t")
	cmd.MarkFlagRequired("s")

	return cmd
}

// simulateOutput is the JSON form of a single run.
type simulateOutput struct {
	Seed          uint64      `json:"seed"`
	Nodes         int         `json:"nodes"`
	Edges         int         `json:"edges"`
	Params        game.Params `json:"params"`
	Fractions     []float64   `json:"fractions"`
	FinalFraction float64     `json:"final_fraction"`
	Final         string      `json:"final"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	t, _ := cmd.Flags().GetFloat64("t")
	s, _ := cmd.Flags().GetFloat64("s")
	params := game.Params{T: t, S: s}

	opts := simulation.Options{
		Steps:  cfg.Simulation.Steps,
		Policy: cfg.Policy(),
	}
	if initial, _ := cmd.Flags().GetString("initial"); initial != "" {
		if opts.Initial, err = simulation.ParseAssignment(initial); err != nil {
			return fmt.Errorf("invalid --initial: %w", err)
		}
	}

	net, seed, err := generateNetwork(cfg)
	if err != nil {
		return err
	}

	rounds, err := newRoundLogger(cfg)
	if err != nil {
		return err
	}
	defer rounds.Close()
	if rounds != nil {
		opts.Observer = roundObserver(rounds, 0, params)
	}

	logger.Info("running simulation", "t", params.T, "s", params.S, "seed", seed)
	res, err := simulation.Run(cmd.Context(), net, params, opts, sweep.RunRand(seed, 0))
	if err != nil {
		return err
	}

	if jsonOutput(cmd) {
		return printJSON(cmd, simulateOutput{
			Seed:          seed,
			Nodes:         net.NodeCount(),
			Edges:         net.EdgeCount(),
			Params:        params,
			Fractions:     res.Fractions,
			FinalFraction: res.FinalFraction(),
			Final:         simulation.FormatAssignment(res.Final),
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Network: %d nodes, %d edges (seed %d)\n", net.NodeCount(), net.EdgeCount(), seed)
	fmt.Fprintf(w, "Payoffs: %s\n\n", params)
	for i, f := range res.Fractions {
		fmt.Fprintf(w, "%4d  %.4f\n", i+1, f)
	}
	fmt.Fprintf(w, "\nTrend: %s\n", visualization.Sparkline(res.Fractions, 40))
	fmt.Fprintf(w, "Final cooperator fraction: %.4f\n", res.FinalFraction())
	return nil
}

// roundObserver forwards every round of one run to the round trace.
func roundObserver(rounds *logging.RoundLogger, run int, params game.Params) simulation.RoundObserver {
	trace := rounds.Trace()
	return func(round int, fraction float64, st *simulation.State) {
		ev := logging.RoundEvent{Run: run, T: params.T, S: params.S, Round: round, Fraction: fraction}
		if trace {
			ev.Assignment = simulation.FormatAssignment(st.Strategies)
		}
		rounds.Log(ev)
	}
}
