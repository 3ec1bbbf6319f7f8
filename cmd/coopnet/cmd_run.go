package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"

	"github.com/nvandessel/coopnet/internal/config"
	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/sanitize"
	"github.com/nvandessel/coopnet/internal/store"
	"github.com/nvandessel/coopnet/internal/sweep"
	"github.com/nvandessel/coopnet/internal/visualization"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sweep T over one shared network and report cooperation per run",
		Long: `Generate one random network and run a simulation for every T in the
configured range (S = 2 - T). Each run starts from a fresh random
assignment of strategies.

Examples:
  coopnet run                                   # 100 nodes, p=0.1, T in [1,2] x 10
  coopnet run --nodes 500 --p 0.02 --workers 4
  coopnet run --seed 42 --save --label baseline
  coopnet run --series-out series.arrow --dot-dir plots/`,
		RunE: runSweep,
	}

	addNetworkFlags(cmd)
	addRunFlags(cmd)
	addSweepFlags(cmd)
	cmd.Flags().Bool("save", false, "Store the sweep in the result database")
	cmd.Flags().String("label", "", "Label for the saved sweep")
	cmd.Flags().String("series-out", "", "Write per-round fractions to a .csv or .arrow file")
	cmd.Flags().String("dot-dir", "", "Write each run's final network as Graphviz DOT into this directory")
	cmd.Flags().String("html", "", "Write an HTML report to this file")
	cmd.Flags().Bool("progress", false, "Show a progress bar on stderr")

	return cmd
}

// runOutput is the JSON form of a finished sweep.
type runOutput struct {
	SweepID string        `json:"sweep_id,omitempty"`
	Report  *sweep.Report `json:"report"`
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	seriesOut, _ := cmd.Flags().GetString("series-out")
	var seriesFormat visualization.SeriesFormat
	if seriesOut != "" {
		if seriesFormat, err = visualization.SeriesFormatFor(seriesOut); err != nil {
			return err
		}
	}

	params, err := cfg.Sweep()
	if err != nil {
		return err
	}
	net, seed, err := generateNetwork(cfg)
	if err != nil {
		return err
	}
	logger.Info("network generated",
		"nodes", net.NodeCount(),
		"edges", net.EdgeCount(),
		"isolated", len(net.IsolatedNodes()),
		"seed", seed)

	rounds, err := newRoundLogger(cfg)
	if err != nil {
		return err
	}
	defer rounds.Close()

	sweepCfg := sweep.Config{
		Params:          params,
		Steps:           cfg.Simulation.Steps,
		Seed:            seed,
		Policy:          cfg.Policy(),
		Workers:         cfg.Simulation.Workers,
		ContinueOnError: cfg.Simulation.ContinueOnError,
	}

	showProgress, _ := cmd.Flags().GetBool("progress")
	if showProgress {
		stop := attachProgress(cmd, &sweepCfg)
		defer stop()
	}

	report, err := sweep.NewRunner(net, logger, rounds).Run(cmd.Context(), sweepCfg)
	if err != nil {
		return err
	}

	out := runOutput{Report: report}
	if save, _ := cmd.Flags().GetBool("save"); save {
		label, _ := cmd.Flags().GetString("label")
		if out.SweepID, err = saveSweep(cmd, cfg, net, report, label); err != nil {
			return err
		}
	}

	if seriesOut != "" {
		if err := writeSeriesFile(seriesOut, seriesFormat, report.Runs); err != nil {
			return err
		}
		logger.Info("series written", "path", seriesOut)
	}
	if dir, _ := cmd.Flags().GetString("dot-dir"); dir != "" {
		if err := writeDOTFiles(dir, net, report.Runs); err != nil {
			return err
		}
		logger.Info("networks written", "dir", dir)
	}
	if path, _ := cmd.Flags().GetString("html"); path != "" {
		if err := writeHTMLFile(path, fmt.Sprintf("coopnet sweep (seed %d)", seed), report); err != nil {
			return err
		}
		logger.Info("report written", "path", path)
	}

	if jsonOutput(cmd) {
		return printJSON(cmd, out)
	}
	printReport(cmd, report)
	if out.SweepID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved sweep %s\n", out.SweepID)
	}
	return nil
}

// attachProgress renders one tracker over the sweep's runs on stderr.
func attachProgress(cmd *cobra.Command, cfg *sweep.Config) (stop func()) {
	pw := progress.NewWriter()
	pw.SetOutputWriter(cmd.ErrOrStderr())
	pw.SetMessageLength(24)
	pw.SetTrackerLength(30)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Options.PercentFormat = "%3.0f%%"

	tracker := &progress.Tracker{
		Message: "Simulating",
		Total:   int64(len(cfg.Params)),
		Units:   progress.UnitsDefault,
	}
	pw.SetAutoStop(true)
	pw.AppendTracker(tracker)

	done := make(chan struct{})
	go func() {
		pw.Render()
		close(done)
	}()

	cfg.OnRunDone = func(sweep.RunReport) { tracker.Increment(1) }

	return func() {
		tracker.MarkAsDone()
		<-done
	}
}

func saveSweep(cmd *cobra.Command, cfg *config.CoopnetConfig, net *network.Network, report *sweep.Report, label string) (string, error) {
	s, err := openStore(cmd, cfg)
	if err != nil {
		return "", err
	}
	defer s.Close()

	id, err := s.SaveSweep(cmd.Context(), net, report, store.Meta{
		EdgeProbability: cfg.Network.EdgeProbability,
		Label:           sanitize.Label(label),
	})
	if err != nil {
		return "", fmt.Errorf("save sweep: %w", err)
	}
	return id, nil
}

// printReport writes the network header and per-run table.
func printReport(cmd *cobra.Command, report *sweep.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Network: %d nodes, %d edges, mean degree %.2f, %d isolated (seed %d)\n",
		report.Nodes, report.Edges, report.MeanDegree, report.Isolated, report.Seed)
	fmt.Fprintf(w, "Rounds per run: %d, isolated policy: %s\n\n", report.Steps, report.Policy)
	visualization.RenderSummaryTable(w, report.Runs, visualization.SummaryOptions{SparklineWidth: 20})
	if n := report.Failures(); n > 0 {
		fmt.Fprintf(w, "%d of %d runs failed\n", n, len(report.Runs))
	}
}

func writeSeriesFile(path string, format visualization.SeriesFormat, runs []sweep.RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create series file: %w", err)
	}
	if err := visualization.WriteSeries(f, format, runs); err != nil {
		f.Close()
		return fmt.Errorf("write series: %w", err)
	}
	return f.Close()
}

// writeDOTFiles writes run-NN.dot per successful run.
func writeDOTFiles(dir string, net *network.Network, runs []sweep.RunReport) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create DOT directory: %w", err)
	}
	for _, run := range runs {
		if run.Failed() {
			continue
		}
		dot, err := visualization.RenderDOT(net, run.Final)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("run-%02d.dot", run.Index))
		header := fmt.Sprintf("// T=%g S=%g final cooperator fraction %.4f\n", run.Params.T, run.Params.S, run.FinalFraction)
		if err := os.WriteFile(path, []byte(header+dot), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writeHTMLFile(path, title string, report *sweep.Report) error {
	page, err := visualization.RenderHTML(title, report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, page, 0644); err != nil {
		return fmt.Errorf("write HTML report: %w", err)
	}
	return nil
}
