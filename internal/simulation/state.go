package simulation

import (
	"math/rand/v2"

	"github.com/nvandessel/coopnet/internal/game"
)

// State is the per-run node state: one strategy and one payoff per node id.
// Payoffs are only meaningful between ComputePayoffs and UpdateStrategies of
// the same round.
type State struct {
	Strategies []game.Strategy
	Payoffs    []float64

	// next is the commit buffer for UpdateStrategies.
	next []game.Strategy
}

// NewState allocates a state buffer for n nodes. All nodes start as
// Cooperate with zero payoff until InitializeStrategies runs.
func NewState(n int) *State {
	return &State{
		Strategies: make([]game.Strategy, n),
		Payoffs:    make([]float64, n),
		next:       make([]game.Strategy, n),
	}
}

// Len returns the number of nodes the state covers.
func (st *State) Len() int { return len(st.Strategies) }

// Snapshot returns a copy of the current strategies.
func (st *State) Snapshot() []game.Strategy {
	out := make([]game.Strategy, len(st.Strategies))
	copy(out, st.Strategies)
	return out
}

// Assign overwrites the strategies with a fixed assignment and clears payoffs.
func (st *State) Assign(strategies []game.Strategy) {
	copy(st.Strategies, strategies)
	clear(st.Payoffs)
}

// InitializeStrategies assigns every node Cooperate or Defect independently
// with probability 1/2, overwriting any prior assignment.
func InitializeStrategies(st *State, rng *rand.Rand) {
	for i := range st.Strategies {
		if rng.IntN(2) == 0 {
			st.Strategies[i] = game.Cooperate
		} else {
			st.Strategies[i] = game.Defect
		}
	}
	clear(st.Payoffs)
}

// CooperatorFraction returns the share of nodes currently cooperating.
func CooperatorFraction(st *State) float64 {
	if len(st.Strategies) == 0 {
		return 0
	}
	return float64(CountCooperators(st.Strategies)) / float64(len(st.Strategies))
}

// CountCooperators counts Cooperate entries in strategies.
func CountCooperators(strategies []game.Strategy) int {
	c := 0
	for _, s := range strategies {
		if s == game.Cooperate {
			c++
		}
	}
	return c
}
