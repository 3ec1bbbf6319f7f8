// Package network provides the immutable interaction topology for coopnet.
//
// A Network is an undirected simple graph over the node ids 0..N-1. It is
// built once per sweep and shared read-only by every run; per-run state
// (strategies, payoffs) lives outside of it in simulation.State.
package network

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// ErrInvalidParameter is returned for out-of-domain construction inputs.
var ErrInvalidParameter = errors.New("invalid parameter")

// Edge is an undirected edge. A is always the smaller endpoint.
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Network is an immutable undirected graph with sorted adjacency lists.
type Network struct {
	adj   [][]int
	edges int
}

// Generate builds an Erdős–Rényi G(n, p) graph: each unordered pair of
// distinct nodes is connected independently with probability p.
//
// Pairs are visited in (i, j) order with i < j, so a given rng seed always
// yields the same topology.
func Generate(nodeCount int, edgeProbability float64, rng *rand.Rand) (*Network, error) {
	if nodeCount <= 0 {
		return nil, fmt.Errorf("%w: node count must be positive, got %d", ErrInvalidParameter, nodeCount)
	}
	if math.IsNaN(edgeProbability) || edgeProbability < 0 || edgeProbability > 1 {
		return nil, fmt.Errorf("%w: edge probability must be in [0,1], got %v", ErrInvalidParameter, edgeProbability)
	}

	n := &Network{adj: make([][]int, nodeCount)}
	if edgeProbability == 0 {
		return n, nil
	}

	complete := edgeProbability == 1
	for i := 0; i < nodeCount; i++ {
		for j := i + 1; j < nodeCount; j++ {
			if complete || rng.Float64() < edgeProbability {
				n.link(i, j)
			}
		}
	}
	// Appending in (i, j) order already leaves every list sorted.
	return n, nil
}

// New builds a network from an explicit edge list. Duplicate edges collapse
// to one; self-loops and out-of-range endpoints are rejected.
func New(nodeCount int, edges []Edge) (*Network, error) {
	if nodeCount <= 0 {
		return nil, fmt.Errorf("%w: node count must be positive, got %d", ErrInvalidParameter, nodeCount)
	}

	seen := make(map[Edge]bool, len(edges))
	n := &Network{adj: make([][]int, nodeCount)}
	for _, e := range edges {
		a, b := e.A, e.B
		if a < 0 || a >= nodeCount || b < 0 || b >= nodeCount {
			return nil, fmt.Errorf("%w: edge (%d,%d) out of range for %d nodes", ErrInvalidParameter, a, b, nodeCount)
		}
		if a == b {
			return nil, fmt.Errorf("%w: self-loop on node %d", ErrInvalidParameter, a)
		}
		if a > b {
			a, b = b, a
		}
		key := Edge{A: a, B: b}
		if seen[key] {
			continue
		}
		seen[key] = true
		n.link(a, b)
	}

	for i := range n.adj {
		sort.Ints(n.adj[i])
	}
	return n, nil
}

func (n *Network) link(a, b int) {
	n.adj[a] = append(n.adj[a], b)
	n.adj[b] = append(n.adj[b], a)
	n.edges++
}

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int { return len(n.adj) }

// EdgeCount returns the number of undirected edges.
func (n *Network) EdgeCount() int { return n.edges }

// Neighbors returns the sorted neighbor ids of node. The slice is shared
// with the network and must not be modified.
func (n *Network) Neighbors(node int) []int { return n.adj[node] }

// Degree returns the number of neighbors of node.
func (n *Network) Degree(node int) int { return len(n.adj[node]) }

// Edges returns every edge once, sorted by (A, B).
func (n *Network) Edges() []Edge {
	out := make([]Edge, 0, n.edges)
	for a, nbrs := range n.adj {
		for _, b := range nbrs {
			if a < b {
				out = append(out, Edge{A: a, B: b})
			}
		}
	}
	return out
}

// IsolatedNodes returns the ids of nodes with no neighbors.
func (n *Network) IsolatedNodes() []int {
	var out []int
	for i, nbrs := range n.adj {
		if len(nbrs) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// MeanDegree returns the average node degree.
func (n *Network) MeanDegree() float64 {
	return 2 * float64(n.edges) / float64(len(n.adj))
}
