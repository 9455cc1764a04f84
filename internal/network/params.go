package network

import "time"

// Params groups the network layer's tunable constants, mirroring the way
// pkg/dag.Params groups the DAG engine's: one immutable value built once at
// startup instead of free-floating package constants.
type Params struct {
	MaxPeers              int
	MinPeers              int
	HeartbeatInterval     time.Duration
	ConnectionTimeout     time.Duration
	MaxMessageSize        int
	MaxSeenMessages       int
	SyncInterval          time.Duration
	MaxSyncBatchSize      int
	SeenMessageEvictBatch int
}

// DefaultParams mirrors the original implementation's constants:
// MAX_PEERS=50, MIN_PEERS=8, HEARTBEAT_INTERVAL_SECS=30,
// CONNECTION_TIMEOUT_SECS=10, MAX_MESSAGE_SIZE=10MiB,
// MAX_SEEN_MESSAGES=10000, SYNC_INTERVAL_SECS=60, MAX_SYNC_BATCH_SIZE=1000.
func DefaultParams() Params {
	return Params{
		MaxPeers:              50,
		MinPeers:              8,
		HeartbeatInterval:     30 * time.Second,
		ConnectionTimeout:     10 * time.Second,
		MaxMessageSize:        10 * 1024 * 1024,
		MaxSeenMessages:       10000,
		SyncInterval:          60 * time.Second,
		MaxSyncBatchSize:      1000,
		SeenMessageEvictBatch: 1000, // evict oldest 10% of MaxSeenMessages when full
	}
}
