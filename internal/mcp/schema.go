package mcp

import (
	"github.com/nvandessel/coopnet/internal/visualization"
)

// SimulateInput defines the input for the coopnet_simulate tool. Zero
// values fall back to the server's configured defaults.
type SimulateInput struct {
	Nodes           int     `json:"nodes,omitempty" jsonschema:"number of agents in the network"`
	EdgeProbability *float64 `json:"edge_probability,omitempty" jsonschema:"probability that any two agents are linked (0-1); omit for the default, 0 gives no links"`
	T               float64 `json:"t" jsonschema:"temptation payoff earned by a defector against a cooperator"`
	S               float64 `json:"s" jsonschema:"sucker payoff earned by a cooperator against a defector"`
	Steps           int     `json:"steps,omitempty" jsonschema:"number of rounds to simulate"`
	Seed            uint64  `json:"seed,omitempty" jsonschema:"random seed; 0 picks one and reports it"`
	Policy          string  `json:"policy,omitempty" jsonschema:"isolated-node policy: error or keep"`
}

// SimulateOutput defines the output for the coopnet_simulate tool.
type SimulateOutput struct {
	Seed          uint64    `json:"seed" jsonschema:"seed used for the network and the run"`
	Nodes         int       `json:"nodes" jsonschema:"number of agents"`
	Edges         int       `json:"edges" jsonschema:"number of links"`
	Fractions     []float64 `json:"fractions" jsonschema:"cooperator fraction after each round"`
	FinalFraction float64   `json:"final_fraction" jsonschema:"cooperator fraction after the last round"`
	Cooperators   int       `json:"cooperators" jsonschema:"cooperators after the last round"`
	Defectors     int       `json:"defectors" jsonschema:"defectors after the last round"`
}

// SweepInput defines the input for the coopnet_sweep tool.
type SweepInput struct {
	Nodes           int     `json:"nodes,omitempty" jsonschema:"number of agents in the network"`
	EdgeProbability *float64 `json:"edge_probability,omitempty" jsonschema:"probability that any two agents are linked (0-1); omit for the default, 0 gives no links"`
	TMin            float64 `json:"t_min,omitempty" jsonschema:"smallest temptation payoff; S = 2 - T"`
	TMax            float64 `json:"t_max,omitempty" jsonschema:"largest temptation payoff; S = 2 - T"`
	Samples         int     `json:"samples,omitempty" jsonschema:"number of evenly spaced T values"`
	Steps           int     `json:"steps,omitempty" jsonschema:"number of rounds per run"`
	Seed            uint64  `json:"seed,omitempty" jsonschema:"random seed; 0 picks one and reports it"`
	Policy          string  `json:"policy,omitempty" jsonschema:"isolated-node policy: error or keep"`
	Save            bool    `json:"save,omitempty" jsonschema:"store the sweep in the result database"`
	Label           string  `json:"label,omitempty" jsonschema:"label for the saved sweep"`
}

// SweepRow summarizes one (T, S) run.
type SweepRow struct {
	Index         int     `json:"index"`
	T             float64 `json:"t"`
	S             float64 `json:"s"`
	FinalFraction float64 `json:"final_fraction"`
	TailMean      float64 `json:"tail_mean"`
	TailStd       float64 `json:"tail_std"`
	Error         string  `json:"error,omitempty"`
}

// SweepOutput defines the output for the coopnet_sweep tool.
type SweepOutput struct {
	SweepID    string     `json:"sweep_id,omitempty" jsonschema:"id of the saved sweep when save was requested"`
	Seed       uint64     `json:"seed" jsonschema:"seed used for the network and every run"`
	Nodes      int        `json:"nodes" jsonschema:"number of agents"`
	Edges      int        `json:"edges" jsonschema:"number of links"`
	MeanDegree float64    `json:"mean_degree" jsonschema:"average number of neighbors"`
	Isolated   int        `json:"isolated" jsonschema:"agents without neighbors"`
	Runs       []SweepRow `json:"runs" jsonschema:"one row per (T, S) pair"`
	DurationMs int64      `json:"duration_ms" jsonschema:"wall time of the sweep in milliseconds"`
}

// NetworkInput defines the input for the coopnet_network tool.
type NetworkInput struct {
	SweepID string `json:"sweep_id" jsonschema:"saved sweep id or unique prefix"`
	Run     int    `json:"run,omitempty" jsonschema:"run index whose final assignment colors the nodes"`
	Format  string `json:"format,omitempty" jsonschema:"dot or json (default json)"`
}

// NetworkOutput defines the output for the coopnet_network tool.
type NetworkOutput struct {
	Format string               `json:"format" jsonschema:"format of the rendering"`
	DOT    string               `json:"dot,omitempty" jsonschema:"Graphviz source when format is dot"`
	Graph  *visualization.Graph `json:"graph,omitempty" jsonschema:"nodes and edges when format is json"`
}

// SweepsListInput defines the input for the coopnet_sweeps_list tool.
type SweepsListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of sweeps to return (default all)"`
}

// SweepListItem is one saved sweep. CreatedAt is RFC 3339.
type SweepListItem struct {
	ID              string    `json:"id"`
	CreatedAt       string  `json:"created_at"`
	Label           string  `json:"label,omitempty"`
	Nodes           int     `json:"nodes"`
	EdgeProbability float64 `json:"edge_probability"`
	Steps           int     `json:"steps"`
	Seed            uint64  `json:"seed"`
	Runs            int     `json:"runs"`
	Failed          int     `json:"failed"`
}

// SweepsListOutput defines the output for the coopnet_sweeps_list tool.
type SweepsListOutput struct {
	Sweeps []SweepListItem `json:"sweeps" jsonschema:"saved sweeps, newest first"`
	Count  int             `json:"count" jsonschema:"number of sweeps returned"`
}
