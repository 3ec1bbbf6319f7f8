package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nvandessel/coopnet/internal/backup"
	"github.com/nvandessel/coopnet/internal/store"
	"github.com/nvandessel/coopnet/internal/visualization"
)

func newSweepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweeps",
		Short: "Inspect saved sweeps",
		Long: `List, show, serve, export and delete sweeps saved with 'coopnet run --save'.
Sweep IDs may be abbreviated to any unique prefix.`,
	}

	cmd.AddCommand(
		newSweepsListCmd(),
		newSweepsShowCmd(),
		newSweepsDeleteCmd(),
		newSweepsServeCmd(),
		newSweepsExportCmd(),
		newSweepsImportCmd(),
	)
	return cmd
}

// withStore loads the config, opens the result store and runs fn with it.
func withStore(cmd *cobra.Command, fn func(store.ResultStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func newSweepsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sweeps, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(s store.ResultStore) error {
				sweeps, err := s.ListSweeps(cmd.Context())
				if err != nil {
					return err
				}
				if limit > 0 && len(sweeps) > limit {
					sweeps = sweeps[:limit]
				}

				if jsonOutput(cmd) {
					return printJSON(cmd, map[string]interface{}{
						"sweeps": sweeps,
						"count":  len(sweeps),
					})
				}

				if len(sweeps) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved sweeps.")
					return nil
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.SetStyle(table.StyleLight)
				tw.AppendHeader(table.Row{"ID", "Created", "Label", "Nodes", "p", "Steps", "Runs", "Failed", "Seed"})
				for _, sw := range sweeps {
					tw.AppendRow(table.Row{
						shortID(sw.ID),
						sw.CreatedAt.Local().Format(time.DateTime),
						sw.Label,
						sw.Nodes,
						sw.EdgeProbability,
						sw.Steps,
						sw.Runs,
						sw.Failed,
						sw.Seed,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 0, "Show at most this many sweeps (0 for all)")
	return cmd
}

func newSweepsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the runs of a saved sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				sw, err := s.LoadSweep(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if path, _ := cmd.Flags().GetString("series-out"); path != "" {
					format, err := visualization.SeriesFormatFor(path)
					if err != nil {
						return err
					}
					if err := writeSeriesFile(path, format, sw.Report.Runs); err != nil {
						return err
					}
				}
				if dir, _ := cmd.Flags().GetString("dot-dir"); dir != "" {
					if err := writeDOTFiles(dir, sw.Network, sw.Report.Runs); err != nil {
						return err
					}
				}
				if path, _ := cmd.Flags().GetString("html"); path != "" {
					if err := writeHTMLFile(path, sweepTitle(sw.SweepSummary), sw.Report); err != nil {
						return err
					}
				}

				if jsonOutput(cmd) {
					return printJSON(cmd, sw)
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Sweep %s", sw.ID)
				if sw.Label != "" {
					fmt.Fprintf(w, " (%s)", sw.Label)
				}
				fmt.Fprintf(w, "\nCreated %s, p=%g, took %s\n",
					sw.CreatedAt.Local().Format(time.DateTime), sw.EdgeProbability, sw.Duration.Round(time.Millisecond))
				printReport(cmd, sw.Report)
				return nil
			})
		},
	}
	cmd.Flags().String("series-out", "", "Write per-round fractions to a .csv or .arrow file")
	cmd.Flags().String("dot-dir", "", "Write each run's final network as Graphviz DOT into this directory")
	cmd.Flags().String("html", "", "Write an HTML report to this file")
	return cmd
}

func newSweepsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				sw, err := s.LoadSweep(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := s.DeleteSweep(cmd.Context(), sw.ID); err != nil {
					return err
				}

				if jsonOutput(cmd) {
					return printJSON(cmd, map[string]interface{}{
						"deleted": sw.ID,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted sweep %s\n", sw.ID)
				return nil
			})
		},
	}
}

func newSweepsServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <id>",
		Short: "Browse a saved sweep in a local web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			return withStore(cmd, func(s store.ResultStore) error {
				sw, err := s.LoadSweep(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				srv := visualization.NewServer(sweepTitle(sw.SweepSummary), sw.Network, sw.Report)
				return runReportServer(cmd, cmd.Context(), srv, addr, noOpen)
			})
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default a free localhost port)")
	cmd.Flags().Bool("no-open", false, "Don't open a browser")
	return cmd
}

func newSweepsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: "Write saved sweeps to an archive file",
		Long: `Write the named sweeps (all saved sweeps when none are named) to a
compressed, checksummed archive that 'coopnet sweeps import' can load.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			return withStore(cmd, func(s store.ResultStore) error {
				header, err := backup.Export(cmd.Context(), s, args, output)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, map[string]interface{}{
						"path":   output,
						"header": header,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sweeps (%d runs) to %s\n", header.SweepCount, header.RunCount, output)
				return nil
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Archive file to write")
	return cmd
}

func newSweepsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load sweeps from an archive file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s store.ResultStore) error {
				result, err := backup.Import(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, result)
				}
				for old, id := range result.IDs {
					fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %s\n", shortID(old), id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d sweeps imported\n", len(result.IDs))
				return nil
			})
		},
	}
}

// runReportServer serves srv until ctx is cancelled.
func runReportServer(cmd *cobra.Command, ctx context.Context, srv *visualization.Server, addr string, noOpen bool) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && srv.Addr() == "" {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}

	bound := srv.Addr()
	if bound == "" {
		return fmt.Errorf("server failed to start")
	}

	url := "http://" + bound
	fmt.Fprintf(cmd.OutOrStdout(), "Report server running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if !noOpen {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func sweepTitle(sw store.SweepSummary) string {
	if sw.Label != "" {
		return "coopnet sweep " + sw.Label
	}
	return "coopnet sweep " + shortID(sw.ID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
