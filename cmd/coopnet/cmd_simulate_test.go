package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSimulateCmd_AllCooperatorsStayPut(t *testing.T) {
	isolateHome(t)

	out, _, err := execute(t, "simulate", "--json",
		"--t", "1.5", "--s", "0.5",
		"--nodes", "4", "--p", "1", "--seed", "3", "--steps", "3",
		"--initial", "CCCC")
	if err != nil {
		t.Fatal(err)
	}

	var got simulateOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Nodes != 4 || got.Edges != 6 {
		t.Errorf("complete graph on 4 nodes: got %d nodes, %d edges", got.Nodes, got.Edges)
	}
	if len(got.Fractions) != 3 {
		t.Fatalf("got %d fractions, want 3", len(got.Fractions))
	}
	for i, f := range got.Fractions {
		if f != 1 {
			t.Errorf("round %d fraction = %v, want 1", i+1, f)
		}
	}
	if got.Final != "CCCC" {
		t.Errorf("final = %q, want CCCC", got.Final)
	}
}

func TestSimulateCmd_DefectorTakesOverPair(t *testing.T) {
	isolateHome(t)

	// Complete graph on 2 nodes: the defector earns T > 1 against the
	// cooperator's S, so the cooperator copies it after one round.
	out, _, err := execute(t, "simulate", "--json",
		"--t", "1.5", "--s", "0.5",
		"--nodes", "2", "--p", "1", "--seed", "3", "--steps", "2",
		"--initial", "CD")
	if err != nil {
		t.Fatal(err)
	}

	var got simulateOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.Final != "DD" || got.FinalFraction != 0 {
		t.Errorf("final = %q (%v), want DD", got.Final, got.FinalFraction)
	}
}

func TestSimulateCmd_TextOutput(t *testing.T) {
	isolateHome(t)

	out, _, err := execute(t, "simulate", "--t", "1.2", "--s", "0.8",
		"--nodes", "15", "--p", "0.3", "--seed", "9", "--steps", "4", "--isolated", "keep")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Network: 15 nodes", "(seed 9)", "Trend:", "Final cooperator fraction:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSimulateCmd_Errors(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing payoffs", []string{"simulate"}},
		{"missing s", []string{"simulate", "--t", "1.5"}},
		{"bad initial letter", []string{"simulate", "--t", "1.5", "--s", "0.5", "--nodes", "4", "--initial", "CCXC"}},
		{"initial length mismatch", []string{"simulate", "--t", "1.5", "--s", "0.5", "--nodes", "4", "--p", "1", "--initial", "CC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
