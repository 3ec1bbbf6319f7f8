package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/sanitize"
	"github.com/nvandessel/coopnet/internal/simulation"
	"github.com/nvandessel/coopnet/internal/store"
	"github.com/nvandessel/coopnet/internal/sweep"
	"github.com/nvandessel/coopnet/internal/visualization"
)

// errNoStore is returned by tools that need the result database when the
// server was started without one.
var errNoStore = errors.New("no result store configured")

// registerTools registers all coopnet MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coopnet_simulate",
		Description: "Run one prisoner's-dilemma imitation simulation on a random network and return the cooperator fraction per round",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coopnet_sweep",
		Description: "Sweep the temptation payoff T (with S = 2 - T) over one shared random network and summarize each run",
	}, s.handleSweep)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coopnet_sweeps_list",
		Description: "List sweeps saved in the result database",
	}, s.handleSweepsList)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coopnet_network",
		Description: "Render a saved sweep's network colored by one run's final strategies, as Graphviz DOT or JSON",
	}, s.handleNetwork)
}

const sweepURIPrefix = "coopnet://sweeps/"

// registerResources exposes saved sweeps as JSON resources.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: sweepURIPrefix + "{id}",
		Name:        "coopnet-sweep",
		Description: "Full report of a saved sweep, including every run's per-round cooperator fraction.",
		MIMEType:    "application/json",
	}, s.handleSweepResource)
}

func (s *Server) handleSweepResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, sweepURIPrefix)
	if id == uri || id == "" {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}

	sw, err := s.store.LoadSweep(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(sw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sweep: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

// networkSettings resolves network arguments against the defaults. A nil
// edge probability takes the default; an explicit 0 is kept.
func (s *Server) networkSettings(nodes int, prob *float64, seed uint64) (int, float64, uint64, error) {
	if nodes == 0 {
		nodes = s.defaults.Network.Nodes
	}
	p := s.defaults.Network.EdgeProbability
	if prob != nil {
		p = *prob
	}
	if seed == 0 {
		seed = s.defaults.Network.Seed
	}
	if nodes > s.limits.MaxNodes {
		return 0, 0, 0, fmt.Errorf("%w: nodes %d exceeds limit %d", network.ErrInvalidParameter, nodes, s.limits.MaxNodes)
	}
	return nodes, p, sweep.ResolveSeed(seed), nil
}

// optional unwraps p for the audit log.
func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s *Server) steps(steps int) (int, error) {
	if steps == 0 {
		steps = s.defaults.Simulation.Steps
	}
	if steps > s.limits.MaxSteps {
		return 0, fmt.Errorf("%w: steps %d exceeds limit %d", network.ErrInvalidParameter, steps, s.limits.MaxSteps)
	}
	return steps, nil
}

func (s *Server) policy(v string) (simulation.IsolatedPolicy, error) {
	if v == "" {
		v = s.defaults.Simulation.IsolatedPolicy
	}
	return simulation.ParseIsolatedPolicy(v)
}

// handleSimulate implements the coopnet_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("coopnet_simulate", start, retErr, map[string]any{
			"nodes": args.Nodes, "edge_probability": optional(args.EdgeProbability), "t": args.T, "s": args.S,
			"steps": args.Steps, "seed": args.Seed, "policy": args.Policy,
		})
	}()

	if err := s.limiters.Check("coopnet_simulate"); err != nil {
		return nil, SimulateOutput{}, err
	}

	nodes, p, seed, err := s.networkSettings(args.Nodes, args.EdgeProbability, args.Seed)
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	steps, err := s.steps(args.Steps)
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	policy, err := s.policy(args.Policy)
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	net, err := network.Generate(nodes, p, sweep.NetworkRand(seed))
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	params := game.Params{T: args.T, S: args.S}
	s.logger.Info("running simulation", "t", params.T, "s", params.S, "nodes", nodes, "seed", seed)
	res, err := simulation.Run(ctx, net, params, simulation.Options{Steps: steps, Policy: policy}, sweep.RunRand(seed, 0))
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	cooperators := simulation.CountCooperators(res.Final)
	return nil, SimulateOutput{
		Seed:          seed,
		Nodes:         net.NodeCount(),
		Edges:         net.EdgeCount(),
		Fractions:     res.Fractions,
		FinalFraction: res.FinalFraction(),
		Cooperators:   cooperators,
		Defectors:     len(res.Final) - cooperators,
	}, nil
}

// handleSweep implements the coopnet_sweep tool.
func (s *Server) handleSweep(ctx context.Context, req *sdk.CallToolRequest, args SweepInput) (_ *sdk.CallToolResult, _ SweepOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("coopnet_sweep", start, retErr, map[string]any{
			"nodes": args.Nodes, "edge_probability": optional(args.EdgeProbability), "t_min": args.TMin, "t_max": args.TMax,
			"samples": args.Samples, "steps": args.Steps, "seed": args.Seed, "policy": args.Policy,
			"save": args.Save, "label": args.Label,
		})
	}()

	if err := s.limiters.Check("coopnet_sweep"); err != nil {
		return nil, SweepOutput{}, err
	}
	if args.Save && s.store == nil {
		return nil, SweepOutput{}, errNoStore
	}

	nodes, p, seed, err := s.networkSettings(args.Nodes, args.EdgeProbability, args.Seed)
	if err != nil {
		return nil, SweepOutput{}, err
	}
	steps, err := s.steps(args.Steps)
	if err != nil {
		return nil, SweepOutput{}, err
	}
	policy, err := s.policy(args.Policy)
	if err != nil {
		return nil, SweepOutput{}, err
	}

	tMin, tMax, samples := args.TMin, args.TMax, args.Samples
	if tMin == 0 && tMax == 0 {
		tMin, tMax = s.defaults.Game.TMin, s.defaults.Game.TMax
	}
	if samples == 0 {
		samples = s.defaults.Game.Samples
	}
	if samples > s.limits.MaxSamples {
		return nil, SweepOutput{}, fmt.Errorf("%w: samples %d exceeds limit %d", network.ErrInvalidParameter, samples, s.limits.MaxSamples)
	}
	params, err := game.Sweep(tMin, tMax, samples)
	if err != nil {
		return nil, SweepOutput{}, err
	}

	net, err := network.Generate(nodes, p, sweep.NetworkRand(seed))
	if err != nil {
		return nil, SweepOutput{}, err
	}

	report, err := sweep.NewRunner(net, s.logger, nil).Run(ctx, sweep.Config{
		Params:          params,
		Steps:           steps,
		Seed:            seed,
		Policy:          policy,
		Workers:         s.defaults.Simulation.Workers,
		ContinueOnError: s.defaults.Simulation.ContinueOnError,
	})
	if err != nil {
		return nil, SweepOutput{}, err
	}

	out := SweepOutput{
		Seed:       report.Seed,
		Nodes:      report.Nodes,
		Edges:      report.Edges,
		MeanDegree: report.MeanDegree,
		Isolated:   report.Isolated,
		Runs:       make([]SweepRow, len(report.Runs)),
		DurationMs: report.Duration.Milliseconds(),
	}
	for i, run := range report.Runs {
		out.Runs[i] = SweepRow{
			Index:         run.Index,
			T:             run.Params.T,
			S:             run.Params.S,
			FinalFraction: run.FinalFraction,
			TailMean:      run.TailMean,
			TailStd:       run.TailStd,
			Error:         run.Err,
		}
	}

	if args.Save {
		id, err := s.store.SaveSweep(ctx, net, report, store.Meta{EdgeProbability: p, Label: sanitize.Label(args.Label)})
		if err != nil {
			return nil, SweepOutput{}, fmt.Errorf("failed to save sweep: %w", err)
		}
		out.SweepID = id
	}

	return nil, out, nil
}

// handleSweepsList implements the coopnet_sweeps_list tool.
func (s *Server) handleSweepsList(ctx context.Context, req *sdk.CallToolRequest, args SweepsListInput) (_ *sdk.CallToolResult, _ SweepsListOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("coopnet_sweeps_list", start, retErr, map[string]any{"limit": args.Limit})
	}()

	if err := s.limiters.Check("coopnet_sweeps_list"); err != nil {
		return nil, SweepsListOutput{}, err
	}
	if s.store == nil {
		return nil, SweepsListOutput{}, errNoStore
	}

	sweeps, err := s.store.ListSweeps(ctx)
	if err != nil {
		return nil, SweepsListOutput{}, fmt.Errorf("failed to list sweeps: %w", err)
	}
	if args.Limit > 0 && len(sweeps) > args.Limit {
		sweeps = sweeps[:args.Limit]
	}

	items := make([]SweepListItem, 0, len(sweeps))
	for _, sw := range sweeps {
		items = append(items, SweepListItem{
			ID:              sw.ID,
			CreatedAt:       sw.CreatedAt.Format(time.RFC3339),
			Label:           sw.Label,
			Nodes:           sw.Nodes,
			EdgeProbability: sw.EdgeProbability,
			Steps:           sw.Steps,
			Seed:            sw.Seed,
			Runs:            sw.Runs,
			Failed:          sw.Failed,
		})
	}
	return nil, SweepsListOutput{Sweeps: items, Count: len(items)}, nil
}

// handleNetwork implements the coopnet_network tool.
func (s *Server) handleNetwork(ctx context.Context, req *sdk.CallToolRequest, args NetworkInput) (_ *sdk.CallToolResult, _ NetworkOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("coopnet_network", start, retErr, map[string]any{"format": args.Format, "run": args.Run})
	}()

	if err := s.limiters.Check("coopnet_network"); err != nil {
		return nil, NetworkOutput{}, err
	}
	if s.store == nil {
		return nil, NetworkOutput{}, errNoStore
	}

	format := visualization.FormatJSON
	if args.Format != "" {
		f, err := visualization.ParseFormat(args.Format)
		if err != nil {
			return nil, NetworkOutput{}, err
		}
		format = f
	}

	sw, err := s.store.LoadSweep(ctx, args.SweepID)
	if err != nil {
		return nil, NetworkOutput{}, err
	}
	if args.Run < 0 || args.Run >= len(sw.Report.Runs) {
		return nil, NetworkOutput{}, fmt.Errorf("run %d out of range (sweep has %d runs)", args.Run, len(sw.Report.Runs))
	}
	run := sw.Report.Runs[args.Run]
	if run.Failed() {
		return nil, NetworkOutput{}, fmt.Errorf("run %d failed: %s", args.Run, run.Err)
	}

	out := NetworkOutput{Format: string(format)}
	switch format {
	case visualization.FormatDOT:
		out.DOT, err = visualization.RenderDOT(sw.Network, run.Final)
	default:
		out.Graph, err = visualization.RenderJSON(sw.Network, run.Final)
	}
	if err != nil {
		return nil, NetworkOutput{}, err
	}
	return nil, out, nil
}
