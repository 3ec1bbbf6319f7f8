package simulation

import (
	"math"
	"testing"
)

// AssertSeriesLength asserts the run recorded exactly steps fractions.
func AssertSeriesLength(t *testing.T, result Result, steps int) {
	t.Helper()
	if len(result.Fractions) != steps {
		t.Errorf("AssertSeriesLength: got %d fractions, want %d", len(result.Fractions), steps)
	}
}

// AssertFractionsBounded asserts every recorded fraction lies in [0, 1].
func AssertFractionsBounded(t *testing.T, result Result) {
	t.Helper()
	for i, f := range result.Fractions {
		if math.IsNaN(f) || f < 0 || f > 1 {
			t.Errorf("AssertFractionsBounded: round %d: fraction %v outside [0,1]", i+1, f)
		}
	}
}

// AssertSameSeries asserts two runs produced identical fraction series.
func AssertSameSeries(t *testing.T, a, b Result) {
	t.Helper()
	if len(a.Fractions) != len(b.Fractions) {
		t.Fatalf("AssertSameSeries: lengths differ: %d vs %d", len(a.Fractions), len(b.Fractions))
	}
	for i := range a.Fractions {
		if a.Fractions[i] != b.Fractions[i] {
			t.Fatalf("AssertSameSeries: round %d differs: %v vs %v", i+1, a.Fractions[i], b.Fractions[i])
		}
	}
}

// AssertFinalAssignment asserts the final strategies match want, written as
// C/D letters.
func AssertFinalAssignment(t *testing.T, result Result, want string) {
	t.Helper()
	if got := FormatAssignment(result.Final); got != want {
		t.Errorf("AssertFinalAssignment: got %s, want %s", got, want)
	}
}
