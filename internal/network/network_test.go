package network

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestGenerate_NodeCount(t *testing.T) {
	for _, n := range []int{1, 2, 17, 100} {
		net, err := Generate(n, 0.3, newRand(1))
		if err != nil {
			t.Fatalf("Generate(%d): %v", n, err)
		}
		if net.NodeCount() != n {
			t.Errorf("NodeCount() = %d, want %d", net.NodeCount(), n)
		}
	}
}

func TestGenerate_ZeroProbabilityHasNoEdges(t *testing.T) {
	net, err := Generate(50, 0, newRand(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if net.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", net.EdgeCount())
	}
	if got := len(net.IsolatedNodes()); got != 50 {
		t.Errorf("IsolatedNodes() has %d entries, want 50", got)
	}
}

func TestGenerate_FullProbabilityIsComplete(t *testing.T) {
	const n = 12
	net, err := Generate(n, 1, newRand(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := n * (n - 1) / 2; net.EdgeCount() != want {
		t.Errorf("EdgeCount() = %d, want %d", net.EdgeCount(), want)
	}
	for i := 0; i < n; i++ {
		if net.Degree(i) != n-1 {
			t.Errorf("Degree(%d) = %d, want %d", i, net.Degree(i), n-1)
		}
	}
}

func TestGenerate_InvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		nodes int
		p     float64
	}{
		{"zero nodes", 0, 0.5},
		{"negative nodes", -3, 0.5},
		{"negative probability", 10, -0.1},
		{"probability above one", 10, 1.5},
		{"NaN probability", 10, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.nodes, tt.p, newRand(4))
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestGenerate_DeterministicForSeed(t *testing.T) {
	a, err := Generate(60, 0.1, newRand(42))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(60, 0.1, newRand(42))
	if err != nil {
		t.Fatal(err)
	}
	ea, eb := a.Edges(), b.Edges()
	if len(ea) != len(eb) {
		t.Fatalf("edge counts differ: %d vs %d", len(ea), len(eb))
	}
	for i := range ea {
		if ea[i] != eb[i] {
			t.Fatalf("edge %d differs: %v vs %v", i, ea[i], eb[i])
		}
	}
}

func TestGenerate_AdjacencySortedAndSymmetric(t *testing.T) {
	net, err := Generate(80, 0.2, newRand(5))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < net.NodeCount(); i++ {
		nbrs := net.Neighbors(i)
		if !sort.IntsAreSorted(nbrs) {
			t.Errorf("Neighbors(%d) not sorted: %v", i, nbrs)
		}
		for _, j := range nbrs {
			if j == i {
				t.Errorf("self-loop on %d", i)
			}
			if !contains(net.Neighbors(j), i) {
				t.Errorf("edge %d-%d is not symmetric", i, j)
			}
		}
	}
}

func TestGenerate_EdgeDensity(t *testing.T) {
	const n, p = 200, 0.1
	net, err := Generate(n, p, newRand(6))
	if err != nil {
		t.Fatal(err)
	}
	pairs := float64(n*(n-1)) / 2
	density := float64(net.EdgeCount()) / pairs
	if math.Abs(density-p) > 0.02 {
		t.Errorf("edge density = %.4f, want about %.2f", density, p)
	}
}

func TestNew(t *testing.T) {
	net, err := New(4, []Edge{{0, 1}, {2, 1}, {1, 0}, {3, 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if net.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3 (duplicates collapse)", net.EdgeCount())
	}
	want := []Edge{{0, 1}, {1, 2}, {2, 3}}
	got := net.Edges()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Edges()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if nb := net.Neighbors(1); len(nb) != 2 || nb[0] != 0 || nb[1] != 2 {
		t.Errorf("Neighbors(1) = %v, want [0 2]", nb)
	}
	if md := net.MeanDegree(); md != 1.5 {
		t.Errorf("MeanDegree() = %v, want 1.5", md)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		nodes int
		edges []Edge
	}{
		{"no nodes", 0, nil},
		{"self loop", 3, []Edge{{1, 1}}},
		{"out of range", 3, []Edge{{0, 3}}},
		{"negative endpoint", 3, []Edge{{-1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.nodes, tt.edges); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
