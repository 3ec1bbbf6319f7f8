package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/coopnet/internal/store"
)

// saveTestSweep runs a small sweep with --save and returns its ID.
func saveTestSweep(t *testing.T, db, label string) string {
	t.Helper()
	args := append([]string{"run", "--json", "--save", "--label", label, "--db", db}, smallSweepArgs...)
	out, _, err := execute(t, args...)
	if err != nil {
		t.Fatalf("run --save failed: %v", err)
	}
	var got runOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.SweepID == "" {
		t.Fatal("saved sweep has no id")
	}
	return got.SweepID
}

func TestSweepsCmd_Lifecycle(t *testing.T) {
	isolateHome(t)
	db := filepath.Join(t.TempDir(), "results.db")

	id := saveTestSweep(t, db, "baseline")

	out, _, err := execute(t, "sweeps", "list", "--json", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	var listed struct {
		Sweeps []store.SweepSummary `json:"sweeps"`
		Count  int                  `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatal(err)
	}
	if listed.Count != 1 || listed.Sweeps[0].ID != id || listed.Sweeps[0].Label != "baseline" {
		t.Fatalf("unexpected listing: %+v", listed)
	}
	if listed.Sweeps[0].Runs != 3 || listed.Sweeps[0].Seed != 7 {
		t.Errorf("unexpected summary: %+v", listed.Sweeps[0])
	}

	out, _, err = execute(t, "sweeps", "list", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, id[:8]) || !strings.Contains(out, "baseline") {
		t.Errorf("table missing sweep:\n%s", out)
	}

	out, _, err = execute(t, "sweeps", "show", id[:8], "--json", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	var shown store.StoredSweep
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatal(err)
	}
	if shown.ID != id || len(shown.Report.Runs) != 3 {
		t.Errorf("show returned %s with %d runs", shown.ID, len(shown.Report.Runs))
	}

	out, _, err = execute(t, "sweeps", "delete", id[:8], "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Deleted sweep "+id) {
		t.Errorf("delete output = %q", out)
	}

	out, _, err = execute(t, "sweeps", "list", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No saved sweeps.") {
		t.Errorf("expected empty listing, got:\n%s", out)
	}
}

func TestSweepsShowCmd_Exports(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "results.db")
	id := saveTestSweep(t, db, "exports")

	series := filepath.Join(dir, "series.arrow")
	dots := filepath.Join(dir, "dots")
	out, _, err := execute(t, "sweeps", "show", id, "--db", db, "--series-out", series, "--dot-dir", dots)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Sweep "+id+" (exports)") {
		t.Errorf("unexpected header:\n%s", out)
	}

	if info, err := os.Stat(series); err != nil || info.Size() == 0 {
		t.Errorf("series file not written: %v", err)
	}
	entries, err := os.ReadDir(dots)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d DOT files, want 3", len(entries))
	}
}

func TestSweepsCmd_UnknownID(t *testing.T) {
	isolateHome(t)
	db := filepath.Join(t.TempDir(), "results.db")

	tests := [][]string{
		{"sweeps", "show", "does-not-exist", "--db", db},
		{"sweeps", "delete", "does-not-exist", "--db", db},
		{"sweeps", "serve", "does-not-exist", "--db", db, "--no-open"},
	}
	for _, args := range tests {
		_, _, err := execute(t, args...)
		if err == nil || !strings.Contains(err.Error(), "sweep not found") {
			t.Errorf("%s: expected not found, got %v", strings.Join(args[:2], " "), err)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestSweepsExportImport(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	srcDB := filepath.Join(dir, "src.db")
	dstDB := filepath.Join(dir, "dst.db")
	archive := filepath.Join(dir, "sweeps.coopnet")

	id := saveTestSweep(t, srcDB, "portable")

	out, _, err := execute(t, "sweeps", "export", "--db", srcDB, "-o", archive)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Exported 1 sweeps (3 runs)") {
		t.Errorf("export output = %q", out)
	}

	out, _, err = execute(t, "sweeps", "import", archive, "--db", dstDB, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var result struct {
		IDs map[string]string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	newID, ok := result.IDs[id]
	if !ok {
		t.Fatalf("import result missing %s: %v", id, result.IDs)
	}

	out, _, err = execute(t, "sweeps", "show", newID, "--db", dstDB)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(portable)") {
		t.Errorf("imported sweep lost its label:\n%s", out)
	}

	if _, _, err := execute(t, "sweeps", "export", "--db", srcDB); err == nil {
		t.Error("export without --output should fail")
	}
}
