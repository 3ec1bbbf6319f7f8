package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/network"
)

// RoundObserver is called after each round with the 1-based round number,
// the cooperator fraction and the state as committed for the next round.
// The state must not be retained or modified.
type RoundObserver func(round int, fraction float64, st *State)

// Options configures a single run.
type Options struct {
	// Steps is the number of rounds to play. Must be positive.
	Steps int

	// Policy decides how isolated nodes are handled during updates.
	Policy IsolatedPolicy

	// Initial, when non-nil, replaces the random initial assignment.
	// It must have one entry per node.
	Initial []game.Strategy

	// Observer, when non-nil, is called after every round.
	Observer RoundObserver
}

// Result is the outcome of one run.
type Result struct {
	Params    game.Params     `json:"params"`
	Fractions []float64       `json:"fractions"`
	Final     []game.Strategy `json:"final"`
}

// FinalFraction returns the cooperator fraction after the last round.
func (r Result) FinalFraction() float64 {
	if len(r.Fractions) == 0 {
		return 0
	}
	return r.Fractions[len(r.Fractions)-1]
}

// Run initializes fresh strategies on net and plays opts.Steps rounds of
// payoff computation followed by strategy update, recording the cooperator
// fraction after each round. The first error from any round aborts the run.
//
// The network is only read. All mutable state is local to the call, so
// concurrent runs over the same network are safe as long as each has its
// own rng.
func Run(ctx context.Context, net *network.Network, params game.Params, opts Options, rng *rand.Rand) (Result, error) {
	if net == nil {
		return Result{}, fmt.Errorf("%w: network is required", ErrInvalidParameter)
	}
	if opts.Steps <= 0 {
		return Result{}, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidParameter, opts.Steps)
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if opts.Initial != nil && len(opts.Initial) != net.NodeCount() {
		return Result{}, fmt.Errorf("%w: initial assignment has %d entries for %d nodes",
			ErrInvalidParameter, len(opts.Initial), net.NodeCount())
	}

	st := NewState(net.NodeCount())
	if opts.Initial != nil {
		st.Assign(opts.Initial)
	} else {
		InitializeStrategies(st, rng)
	}

	fractions := make([]float64, 0, opts.Steps)
	for round := 1; round <= opts.Steps; round++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		ComputePayoffs(net, st, params)
		if err := UpdateStrategies(net, st, rng, opts.Policy); err != nil {
			return Result{}, fmt.Errorf("round %d: %w", round, err)
		}

		f := CooperatorFraction(st)
		fractions = append(fractions, f)
		if opts.Observer != nil {
			opts.Observer(round, f, st)
		}
	}

	return Result{
		Params:    params,
		Fractions: fractions,
		Final:     st.Snapshot(),
	}, nil
}
