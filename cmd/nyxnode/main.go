// Command nyxnode boots a single DAG ledger node: storage, DAG engine,
// mempool, peer-to-peer network layer, and admin API, wired together the
// way the teacher's entrypoint wires its database, Bitcoin RPC client, and
// web server - env-driven, degrading gracefully when an optional
// dependency isn't configured.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nyx-Blockchain/Nyx/internal/api"
	"github.com/Nyx-Blockchain/Nyx/internal/config"
	"github.com/Nyx-Blockchain/Nyx/internal/cryptoutil"
	"github.com/Nyx-Blockchain/Nyx/internal/mempool"
	"github.com/Nyx-Blockchain/Nyx/internal/network"
	"github.com/Nyx-Blockchain/Nyx/internal/node"
	"github.com/Nyx-Blockchain/Nyx/internal/storagepg"
	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

func main() {
	cfg, err := config.Load(getEnvOrDefault("NYX_CONFIG_FILE", ""))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	storage := buildStorage(cfg.DataDir)

	params := dag.DefaultParams()
	params.ConfirmationThreshold = cfg.Dag.ConfirmationThreshold
	params.ScoreDecay = cfg.Dag.ScoreDecay
	params.TipSelectionAlpha = cfg.Dag.TipSelectionAlpha

	engine := dag.NewEngine(storage, params, cryptoutil.PermissiveKeyImageValidator{})
	mp := mempool.New(1_000)

	netParams := network.DefaultParams()
	n := node.New(cfg.Network, engine, mp, netParams)

	wsHub := api.NewHub()
	go wsHub.Run()

	router := api.SetupRouter(n, wsHub)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := n.Run(ctx); err != nil {
			log.Printf("node: run loop exited: %v", err)
		}
	}()

	rpcAddr := getEnvOrDefault("NYX_RPC_ADDR", cfg.RPC.ListenAddr)
	log.Printf("[Main] admin API listening on %s", rpcAddr)
	if err := router.Run(rpcAddr); err != nil {
		log.Fatalf("admin API server failed: %v", err)
	}
}

// buildStorage connects to Postgres if DATABASE_URL is set, falling back
// to the in-memory store with a warning - the same "continue without"
// degradation pattern the teacher's entrypoint used for its Bitcoin RPC
// client.
func buildStorage(dataDir string) dag.Storage {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Println("[Main] DATABASE_URL not set, using in-memory storage (non-durable)")
		return dag.NewMemoryStorage()
	}

	store, err := storagepg.Connect(context.Background(), connStr)
	if err != nil {
		log.Printf("[Main] Warning: failed to connect to Postgres (%v), continuing with in-memory storage", err)
		return dag.NewMemoryStorage()
	}
	log.Println("[Main] connected to Postgres durable storage")
	return store
}

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
