package simulation

import (
	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/network"
)

// ComputePayoffs sets every node's payoff to the sum of its own row of the
// payoff matrix against each neighbor. Isolated nodes get 0. There is no
// normalization by degree and no reciprocal credit to the neighbor.
//
// st must cover exactly net.NodeCount() nodes.
func ComputePayoffs(net *network.Network, st *State, params game.Params) {
	for n, self := range st.Strategies {
		total := 0.0
		for _, m := range net.Neighbors(n) {
			total += params.Payoff(self, st.Strategies[m])
		}
		st.Payoffs[n] = total
	}
}
