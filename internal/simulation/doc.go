// Package simulation runs imitation dynamics for the network cooperation game.
//
// A run owns a State buffer (one strategy and one payoff per node) that is
// kept separate from the shared, immutable network.Network. Every round
// computes all payoffs first, then lets each node compare itself against one
// randomly chosen neighbor. Strategy decisions read a frozen snapshot and are
// committed together, so the outcome does not depend on node order.
//
// Usage:
//
//	rng := simulation.NewRand(seed, 0)
//	net, _ := network.Generate(100, 0.1, rng)
//	res, err := simulation.Run(ctx, net, game.Params{T: 1.5, S: 0.5},
//	    simulation.Options{Steps: 100}, simulation.NewRand(seed, 1))
//
// Scenario is a declarative builder for fixed topologies and initial
// assignments, used by tests and by the CLI's replay path.
package simulation
