package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/coopnet/internal/config"
)

func TestConfigInitAndShow(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, ".coopnet", "config.yaml")

	out, _, err := execute(t, "config", "init")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("init output = %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, _, err := execute(t, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, _, err := execute(t, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out, _, err = execute(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "nodes: 100") || !strings.Contains(out, "edge_probability: 0.1") {
		t.Errorf("unexpected YAML:\n%s", out)
	}
}

func TestConfigShow_FileEnvAndFlags(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("network:\n  nodes: 42\nsimulation:\n  steps: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COOPNET_STEPS", "9")

	out, _, err := execute(t, "config", "show", "--json", "--config", path, "--log-level", "debug")
	if err != nil {
		t.Fatal(err)
	}
	var cfg config.CoopnetConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Network.Nodes != 42 {
		t.Errorf("nodes = %d, want 42 from file", cfg.Network.Nodes)
	}
	if cfg.Simulation.Steps != 9 {
		t.Errorf("steps = %d, want 9 from environment", cfg.Simulation.Steps)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug from flag", cfg.Logging.Level)
	}
}

func TestConfigShow_MissingExplicitFile(t *testing.T) {
	isolateHome(t)
	if _, _, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
