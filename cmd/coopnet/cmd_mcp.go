package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/coopnet/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve simulation tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout that exposes
coopnet_simulate, coopnet_sweep, coopnet_sweeps_list and coopnet_network.

Tool arguments left unset fall back to the loaded configuration. Logs go
to stderr; tool calls are recorded in audit.jsonl under the log directory.

Example MCP client entry:
  {"command": "coopnet", "args": ["mcp-server"]}`,
		RunE: runMCPServer,
	}
	cmd.Flags().Bool("no-store", false, "Run without the result database (sweeps are not saved)")
	return cmd
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	auditDir, err := cfg.LogDir()
	if err != nil {
		return err
	}

	serverCfg := &mcp.Config{
		Name:     "coopnet",
		Version:  version,
		Defaults: cfg,
		AuditDir: auditDir,
		Logger:   logger,
	}

	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		s, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		serverCfg.Store = s
	}

	srv, err := mcp.NewServer(serverCfg)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}
	defer srv.Close()

	if err := srv.Run(cmd.Context()); err != nil && !errors.Is(err, cmd.Context().Err()) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
