package store

import (
	"context"
	"testing"

	"github.com/nvandessel/coopnet/internal/game"
	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/simulation"
	"github.com/nvandessel/coopnet/internal/sweep"
)

// sampleSweep runs a small sweep over a fixed network.
func sampleSweep(t *testing.T) (*network.Network, *sweep.Report) {
	t.Helper()
	net, err := network.Generate(20, 0.3, sweep.NetworkRand(11))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	params, err := game.Sweep(1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	report, err := sweep.NewRunner(net, nil, nil).Run(context.Background(), sweep.Config{
		Params: params,
		Steps:  12,
		Seed:   11,
		Policy: simulation.IsolatedKeep,
	})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	return net, report
}

// assertSameReport compares the parts of a report that survive storage.
func assertSameReport(t *testing.T, got, want *sweep.Report) {
	t.Helper()
	if got.Nodes != want.Nodes || got.Edges != want.Edges || got.Seed != want.Seed ||
		got.Steps != want.Steps || got.Policy != want.Policy {
		t.Errorf("report header mismatch:\n got %+v\nwant %+v", got, want)
	}
	if len(got.Runs) != len(want.Runs) {
		t.Fatalf("got %d runs, want %d", len(got.Runs), len(want.Runs))
	}
	for i := range want.Runs {
		g, w := got.Runs[i], want.Runs[i]
		if g.Index != w.Index || g.Params != w.Params || g.FinalFraction != w.FinalFraction ||
			g.TailMean != w.TailMean || g.TailStd != w.TailStd || g.Err != w.Err {
			t.Errorf("run %d mismatch:\n got %+v\nwant %+v", i, g, w)
		}
		if len(g.Fractions) != len(w.Fractions) {
			t.Errorf("run %d: %d fractions, want %d", i, len(g.Fractions), len(w.Fractions))
			continue
		}
		for j := range w.Fractions {
			if g.Fractions[j] != w.Fractions[j] {
				t.Errorf("run %d round %d: fraction %v, want %v", i, j+1, g.Fractions[j], w.Fractions[j])
				break
			}
		}
		if simulation.FormatAssignment(g.Final) != simulation.FormatAssignment(w.Final) {
			t.Errorf("run %d final assignment mismatch", i)
		}
	}
}
