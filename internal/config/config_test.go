package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Network.MaxPeers != 50 {
		t.Fatalf("MaxPeers = %d, want 50", cfg.Network.MaxPeers)
	}
	if cfg.Dag.ScoreDecay != 0.9 {
		t.Fatalf("ScoreDecay = %v, want 0.9", cfg.Dag.ScoreDecay)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Network.ListenAddr = ":9999"
	cfg.Dag.ConfirmationThreshold = 42.0
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Network.ListenAddr != ":9999" {
		t.Fatalf("ListenAddr = %q, want :9999", loaded.Network.ListenAddr)
	}
	if loaded.Dag.ConfirmationThreshold != 42.0 {
		t.Fatalf("ConfirmationThreshold = %v, want 42.0", loaded.Dag.ConfirmationThreshold)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := Save(Default(), path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	os.Setenv("NYX_LISTEN_ADDR", ":1234")
	defer os.Unsetenv("NYX_LISTEN_ADDR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.ListenAddr != ":1234" {
		t.Fatalf("ListenAddr = %q, want :1234 (env override)", cfg.Network.ListenAddr)
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.MaxPeers != Default().Network.MaxPeers {
		t.Fatal("expected default config when file is missing")
	}
}
