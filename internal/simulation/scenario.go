package simulation

import (
	"context"
	"fmt"
	"strings"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/network"
)

// Scenario describes a run over a fixed, hand-written topology. It is the
// deterministic counterpart of a generated sweep run.
type Scenario struct {
	Name   string
	Nodes  int
	Edges  []network.Edge
	Params game.Params
	Steps  int
	Policy IsolatedPolicy

	// Initial is one strategy letter per node, e.g. "CDDC". Empty means a
	// random assignment drawn from the run's rng.
	Initial string
}

// Network builds the scenario's topology.
func (s Scenario) Network() (*network.Network, error) {
	net, err := network.New(s.Nodes, s.Edges)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return net, nil
}

// Options converts the scenario into run options.
func (s Scenario) Options() (Options, error) {
	opts := Options{Steps: s.Steps, Policy: s.Policy}
	if s.Initial != "" {
		initial, err := ParseAssignment(s.Initial)
		if err != nil {
			return Options{}, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		opts.Initial = initial
	}
	return opts, nil
}

// Run builds the scenario and runs it with a generator seeded from seed.
func (s Scenario) Run(ctx context.Context, seed uint64) (Result, error) {
	net, err := s.Network()
	if err != nil {
		return Result{}, err
	}
	opts, err := s.Options()
	if err != nil {
		return Result{}, err
	}
	return Run(ctx, net, s.Params, opts, NewRand(seed, 0))
}

// ParseAssignment reads one strategy letter per node ("C" or "D").
// Whitespace is ignored.
func ParseAssignment(v string) ([]game.Strategy, error) {
	out := make([]game.Strategy, 0, len(v))
	for _, r := range v {
		if r == ' ' || r == '\t' || r == '\n' {
			continue
		}
		s, err := game.ParseStrategy(string(r))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// FormatAssignment renders strategies as a string of C/D letters.
func FormatAssignment(strategies []game.Strategy) string {
	var b strings.Builder
	b.Grow(len(strategies))
	for _, s := range strategies {
		b.WriteString(s.String())
	}
	return b.String()
}
