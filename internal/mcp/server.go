// Package mcp provides an MCP (Model Context Protocol) server that runs
// cooperation simulations for agents.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/coopnet/internal/config"
	"github.com/nvandessel/coopnet/internal/logging"
	"github.com/nvandessel/coopnet/internal/ratelimit"
	"github.com/nvandessel/coopnet/internal/store"
)

// Limits caps the size of work a single tool call may request.
type Limits struct {
	MaxNodes   int
	MaxSteps   int
	MaxSamples int
}

// DefaultLimits keeps a single call well under a minute on a laptop.
var DefaultLimits = Limits{MaxNodes: 5000, MaxSteps: 10000, MaxSamples: 200}

// Server wraps the MCP SDK server and provides coopnet tools.
type Server struct {
	server   *sdk.Server
	defaults *config.CoopnetConfig
	store    store.ResultStore
	logger   *slog.Logger
	audit    *AuditLogger
	limiters ratelimit.ToolLimiters
	limits   Limits
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "coopnet")
	Version string // Server version

	// Defaults fills tool arguments left at zero. Defaults to config.Default().
	Defaults *config.CoopnetConfig

	// Store enables saving and reading sweeps. Optional.
	Store store.ResultStore

	// AuditDir receives audit.jsonl when set.
	AuditDir string

	Logger *slog.Logger

	// Limits defaults to DefaultLimits; ToolRates to ratelimit.DefaultToolRates.
	Limits    *Limits
	ToolRates map[string]ratelimit.Rate
}

// NewServer creates a new MCP server with coopnet tools.
func NewServer(cfg *Config) (*Server, error) {
	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		defaults: cfg.Defaults,
		store:    cfg.Store,
		logger:   cfg.Logger,
		limits:   DefaultLimits,
	}
	if s.defaults == nil {
		s.defaults = config.Default()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if cfg.Limits != nil {
		s.limits = *cfg.Limits
	}
	rates := cfg.ToolRates
	if rates == nil {
		rates = ratelimit.DefaultToolRates
	}
	s.limiters = ratelimit.NewToolLimiters(rates)
	if cfg.AuditDir != "" {
		s.audit = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	if s.store != nil {
		s.registerResources()
	}

	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "store", s.store != nil)
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.logger.Info("mcp server stopped")
	return err
}

// Close releases the audit log. The store belongs to the caller.
func (s *Server) Close() error {
	return s.audit.Close()
}
