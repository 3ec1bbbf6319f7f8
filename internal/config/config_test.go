package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/coopnet/internal/simulation"
)

// isolateEnv clears every COOPNET_* variable and points HOME at a temp dir.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "COOPNET_") {
			t.Setenv(k, "")
		}
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDefault(t *testing.T) {
	config := Default()

	if config.Network.Nodes != 100 {
		t.Errorf("expected Nodes 100, got %d", config.Network.Nodes)
	}
	if config.Network.EdgeProbability != 0.1 {
		t.Errorf("expected EdgeProbability 0.1, got %f", config.Network.EdgeProbability)
	}
	if config.Network.Seed != 0 {
		t.Errorf("expected Seed 0, got %d", config.Network.Seed)
	}
	if config.Game.TMin != 1 || config.Game.TMax != 2 || config.Game.Samples != 10 {
		t.Errorf("unexpected game defaults: %+v", config.Game)
	}
	if config.Simulation.Steps != 100 {
		t.Errorf("expected Steps 100, got %d", config.Simulation.Steps)
	}
	if config.Simulation.IsolatedPolicy != "error" {
		t.Errorf("expected IsolatedPolicy 'error', got '%s'", config.Simulation.IsolatedPolicy)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
network:
  nodes: 250
  edge_probability: 0.05
  seed: 42

game:
  t_min: 1.2
  t_max: 1.8
  samples: 4

simulation:
  steps: 30
  isolated_policy: keep
  workers: 4
  continue_on_error: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Network.Nodes != 250 || config.Network.EdgeProbability != 0.05 || config.Network.Seed != 42 {
		t.Errorf("unexpected network config: %+v", config.Network)
	}
	if config.Game.TMin != 1.2 || config.Game.TMax != 1.8 || config.Game.Samples != 4 {
		t.Errorf("unexpected game config: %+v", config.Game)
	}
	if config.Simulation.Steps != 30 || config.Simulation.Workers != 4 || !config.Simulation.ContinueOnError {
		t.Errorf("unexpected simulation config: %+v", config.Simulation)
	}
	if config.Policy() != simulation.IsolatedKeep {
		t.Errorf("expected IsolatedKeep, got %v", config.Policy())
	}
	// Unset sections keep their defaults.
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
store:
  path: ${TEST_COOPNET_DATA}/results.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("TEST_COOPNET_DATA", "/data")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Store.Path != "/data/results.db" {
		t.Errorf("expected Store.Path '/data/results.db', got '%s'", config.Store.Path)
	}
}

func TestLoadPath_DefaultFile(t *testing.T) {
	home := isolateEnv(t)
	dir := filepath.Join(home, ".coopnet")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("network:\n  nodes: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Network.Nodes != 7 {
		t.Errorf("expected Nodes 7 from ~/.coopnet/config.yaml, got %d", config.Network.Nodes)
	}
}

func TestLoadPath_NoFileUsesDefaults(t *testing.T) {
	isolateEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Network.Nodes != 100 {
		t.Errorf("expected default Nodes, got %d", config.Network.Nodes)
	}
}

func TestLoadPath_ExplicitMissing(t *testing.T) {
	isolateEnv(t)

	if _, err := LoadPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("COOPNET_NODES", "33")
	t.Setenv("COOPNET_EDGE_PROBABILITY", "0.25")
	t.Setenv("COOPNET_SEED", "9")
	t.Setenv("COOPNET_T_MIN", "1.1")
	t.Setenv("COOPNET_T_MAX", "1.9")
	t.Setenv("COOPNET_SAMPLES", "3")
	t.Setenv("COOPNET_STEPS", "12")
	t.Setenv("COOPNET_ISOLATED_POLICY", "keep")
	t.Setenv("COOPNET_WORKERS", "2")
	t.Setenv("COOPNET_CONTINUE_ON_ERROR", "1")
	t.Setenv("COOPNET_DB", "/tmp/x.db")
	t.Setenv("COOPNET_LOG_LEVEL", "debug")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Network.Nodes != 33 || config.Network.EdgeProbability != 0.25 || config.Network.Seed != 9 {
		t.Errorf("network overrides not applied: %+v", config.Network)
	}
	if config.Game.TMin != 1.1 || config.Game.TMax != 1.9 || config.Game.Samples != 3 {
		t.Errorf("game overrides not applied: %+v", config.Game)
	}
	if config.Simulation.Steps != 12 || config.Simulation.IsolatedPolicy != "keep" ||
		config.Simulation.Workers != 2 || !config.Simulation.ContinueOnError {
		t.Errorf("simulation overrides not applied: %+v", config.Simulation)
	}
	if config.Store.Path != "/tmp/x.db" {
		t.Errorf("expected Store.Path '/tmp/x.db', got '%s'", config.Store.Path)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestEnvOverrides_IgnoresMalformed(t *testing.T) {
	isolateEnv(t)
	t.Setenv("COOPNET_NODES", "many")
	t.Setenv("COOPNET_EDGE_PROBABILITY", "often")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Network.Nodes != 100 || config.Network.EdgeProbability != 0.1 {
		t.Errorf("malformed env should be ignored, got %+v", config.Network)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CoopnetConfig)
		wantErr string
	}{
		{"zero nodes", func(c *CoopnetConfig) { c.Network.Nodes = 0 }, "nodes"},
		{"probability too high", func(c *CoopnetConfig) { c.Network.EdgeProbability = 1.5 }, "edge_probability"},
		{"negative probability", func(c *CoopnetConfig) { c.Network.EdgeProbability = -0.1 }, "edge_probability"},
		{"zero samples", func(c *CoopnetConfig) { c.Game.Samples = 0 }, "samples"},
		{"inverted range", func(c *CoopnetConfig) { c.Game.TMin = 3 }, "t_min"},
		{"zero steps", func(c *CoopnetConfig) { c.Simulation.Steps = 0 }, "steps"},
		{"negative workers", func(c *CoopnetConfig) { c.Simulation.Workers = -1 }, "workers"},
		{"bad policy", func(c *CoopnetConfig) { c.Simulation.IsolatedPolicy = "ignore" }, "isolated_policy"},
		{"bad log level", func(c *CoopnetConfig) { c.Logging.Level = "verbose" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"", "info", "debug", "trace"} {
		config := Default()
		config.Logging.Level = level
		if err := config.Validate(); err != nil {
			t.Errorf("level %q should be valid: %v", level, err)
		}
	}
}

func TestSweep(t *testing.T) {
	config := Default()
	params, err := config.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(params) != 10 {
		t.Errorf("expected 10 pairs, got %d", len(params))
	}
}

func TestStorePathAndLogDir(t *testing.T) {
	home := isolateEnv(t)
	config := Default()

	p, err := config.StorePath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".coopnet", "coopnet.db"); p != want {
		t.Errorf("StorePath() = %s, want %s", p, want)
	}

	dir, err := config.LogDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".coopnet"); dir != want {
		t.Errorf("LogDir() = %s, want %s", dir, want)
	}

	config.Store.Path = "/abs/path.db"
	if p, _ := config.StorePath(); p != "/abs/path.db" {
		t.Errorf("absolute path changed: %s", p)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	config := Default()
	config.Network.Seed = 5
	data, err := config.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "edge_probability: 0.1") {
		t.Errorf("expected edge_probability in YAML, got:\n%s", data)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if *loaded != *config {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *config)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("network: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
