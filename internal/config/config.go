// Package config loads node configuration from an optional JSON file with
// environment variable overrides layered on top, in the same
// requireEnv/getEnvOrDefault style the original command entrypoint used for
// its database and Bitcoin RPC settings.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// NetworkConfig controls the peer-to-peer listener and dialing behavior.
type NetworkConfig struct {
	ListenAddr     string   `json:"listen_addr"`
	MaxPeers       int      `json:"max_peers"`
	MinPeers       int      `json:"min_peers"`
	BootstrapPeers []string `json:"bootstrap_peers"`
	NodeID         string   `json:"node_id"`
}

// RPCConfig controls the admin/status HTTP surface.
type RPCConfig struct {
	ListenAddr     string `json:"listen_addr"`
	AllowedOrigins string `json:"allowed_origins"`
}

// DagConfig controls the DAG engine's tunables.
type DagConfig struct {
	ConfirmationThreshold float64 `json:"confirmation_threshold"`
	ScoreDecay            float64 `json:"score_decay"`
	TipSelectionAlpha     float64 `json:"tip_selection_alpha"`
	SyncIntervalSecs      int     `json:"sync_interval_secs"`
}

// Config is the node's full configuration, loaded once at startup.
type Config struct {
	Network NetworkConfig `json:"network"`
	RPC     RPCConfig     `json:"rpc"`
	Dag     DagConfig     `json:"dag"`
	DataDir string        `json:"data_dir"`
}

// Default returns the configuration a node boots with when no config file
// and no environment overrides are present.
func Default() Config {
	return Config{
		Network: NetworkConfig{
			ListenAddr: ":7777",
			MaxPeers:   50,
			MinPeers:   8,
		},
		RPC: RPCConfig{
			ListenAddr: ":8080",
		},
		Dag: DagConfig{
			ConfirmationThreshold: 10.0,
			ScoreDecay:            0.9,
			TipSelectionAlpha:     0.5,
			SyncIntervalSecs:      60,
		},
		DataDir: "./data",
	}
}

// Load builds a Config starting from Default, overlaying an optional JSON
// file at path (if path is non-empty and the file exists), then overlaying
// environment variables, which always win. This mirrors the layering the
// teacher's entrypoint used for database/RPC settings, generalized to a
// config file instead of bare env-only configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(cfg Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnvOverrides(cfg *Config) {
	cfg.Network.ListenAddr = getEnvOrDefault("NYX_LISTEN_ADDR", cfg.Network.ListenAddr)
	cfg.Network.NodeID = getEnvOrDefault("NYX_NODE_ID", cfg.Network.NodeID)
	cfg.Network.MaxPeers = getEnvIntOrDefault("NYX_MAX_PEERS", cfg.Network.MaxPeers)
	cfg.Network.MinPeers = getEnvIntOrDefault("NYX_MIN_PEERS", cfg.Network.MinPeers)

	cfg.RPC.ListenAddr = getEnvOrDefault("NYX_RPC_ADDR", cfg.RPC.ListenAddr)
	cfg.RPC.AllowedOrigins = getEnvOrDefault("ALLOWED_ORIGINS", cfg.RPC.AllowedOrigins)

	cfg.Dag.ConfirmationThreshold = getEnvFloatOrDefault("NYX_CONFIRMATION_THRESHOLD", cfg.Dag.ConfirmationThreshold)
	cfg.Dag.SyncIntervalSecs = getEnvIntOrDefault("NYX_SYNC_INTERVAL_SECS", cfg.Dag.SyncIntervalSecs)

	cfg.DataDir = getEnvOrDefault("NYX_DATA_DIR", cfg.DataDir)
}

// requireEnv reads a required environment variable and fatally exits with
// a clear message if it is unset, the same contract the original
// entrypoint used for DATABASE_URL.
func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("required environment variable %s is not set", key)
	}
	return v
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
