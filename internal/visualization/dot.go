// Package visualization renders networks and sweep results for people and
// downstream tools.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/network"
)

// Format specifies the output format for network rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat parses "dot" or "json".
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(v)) {
	case FormatDOT:
		return FormatDOT, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: dot, json)", v)
	}
}

// strategyColors maps strategies to DOT fill colors.
var strategyColors = map[game.Strategy]string{
	game.Cooperate: "blue",
	game.Defect:    "red",
}

const unassignedColor = "lightgray"

// RenderDOT produces an undirected Graphviz graph of net. Nodes are filled
// by strategy when strategies is non-nil.
func RenderDOT(net *network.Network, strategies []game.Strategy) (string, error) {
	if err := checkAssignment(net, strategies); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("graph coopnet {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontcolor=white, width=0.3];\n")
	b.WriteString("  edge [color=gray60];\n\n")

	for i := 0; i < net.NodeCount(); i++ {
		color := unassignedColor
		if strategies != nil {
			color = strategyColors[strategies[i]]
		}
		fmt.Fprintf(&b, "  %d [fillcolor=%q, tooltip=\"degree=%d\"];\n", i, color, net.Degree(i))
	}
	b.WriteString("\n")

	for _, e := range net.Edges() {
		fmt.Fprintf(&b, "  %d -- %d;\n", e.A, e.B)
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// GraphNode is one node in the JSON rendering.
type GraphNode struct {
	ID       int    `json:"id"`
	Strategy string `json:"strategy,omitempty"`
	Degree   int    `json:"degree"`
}

// Graph is the JSON rendering of a network and optional assignment.
type Graph struct {
	Nodes      []GraphNode `json:"nodes"`
	Edges      [][2]int    `json:"edges"`
	NodeCount  int         `json:"node_count"`
	EdgeCount  int         `json:"edge_count"`
	Cooperator int         `json:"cooperators,omitempty"`
}

// RenderJSON produces a JSON-ready graph with nodes and edges arrays.
func RenderJSON(net *network.Network, strategies []game.Strategy) (*Graph, error) {
	if err := checkAssignment(net, strategies); err != nil {
		return nil, err
	}

	g := &Graph{
		Nodes:     make([]GraphNode, net.NodeCount()),
		Edges:     make([][2]int, 0, net.EdgeCount()),
		NodeCount: net.NodeCount(),
		EdgeCount: net.EdgeCount(),
	}
	for i := range g.Nodes {
		g.Nodes[i] = GraphNode{ID: i, Degree: net.Degree(i)}
		if strategies != nil {
			g.Nodes[i].Strategy = strategies[i].String()
			if strategies[i] == game.Cooperate {
				g.Cooperator++
			}
		}
	}
	for _, e := range net.Edges() {
		g.Edges = append(g.Edges, [2]int{e.A, e.B})
	}
	return g, nil
}

func checkAssignment(net *network.Network, strategies []game.Strategy) error {
	if net == nil {
		return fmt.Errorf("%w: network is nil", network.ErrInvalidParameter)
	}
	if strategies != nil && len(strategies) != net.NodeCount() {
		return fmt.Errorf("%w: %d strategies for %d nodes",
			network.ErrInvalidParameter, len(strategies), net.NodeCount())
	}
	return nil
}
