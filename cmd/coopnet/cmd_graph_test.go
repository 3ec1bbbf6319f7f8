package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/coopnet/internal/visualization"
)

func TestGraphCmd_DOT(t *testing.T) {
	isolateHome(t)

	out, _, err := execute(t, "graph", "--nodes", "6", "--p", "0.5", "--seed", "4")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "graph coopnet {") {
		t.Errorf("not a DOT graph:\n%s", out)
	}
	if strings.Count(out, `fillcolor="lightgray"`) != 6 {
		t.Errorf("expected 6 uncolored nodes:\n%s", out)
	}
}

func TestGraphCmd_ColoredAfterRun(t *testing.T) {
	isolateHome(t)

	out, _, err := execute(t, "graph", "--nodes", "6", "--p", "1", "--seed", "4",
		"--t", "1.5", "--s", "0.5", "--steps", "3")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "lightgray") {
		t.Errorf("nodes should be colored by strategy:\n%s", out)
	}
	colored := strings.Count(out, `fillcolor="blue"`) + strings.Count(out, `fillcolor="red"`)
	if colored != 6 {
		t.Errorf("got %d colored nodes, want 6", colored)
	}
}

func TestGraphCmd_JSONToFile(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "net.json")

	_, stderr, err := execute(t, "graph", "--nodes", "5", "--p", "1", "--seed", "2",
		"--format", "json", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "Graph written to") {
		t.Errorf("stderr = %q", stderr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var g visualization.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatal(err)
	}
	if g.NodeCount != 5 || g.EdgeCount != 10 || len(g.Edges) != 10 {
		t.Errorf("complete graph on 5 nodes: got %d nodes, %d edges", g.NodeCount, g.EdgeCount)
	}
}

func TestGraphCmd_Errors(t *testing.T) {
	isolateHome(t)

	if _, _, err := execute(t, "graph", "--format", "svg"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, _, err := execute(t, "graph", "--t", "1.5"); err == nil {
		t.Error("expected error when --s is missing")
	}
}
