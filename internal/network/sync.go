package network

import (
	"log"
	"sync"

	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

// SyncState is the sync manager's externally-visible progress snapshot.
type SyncState struct {
	CurrentHeight uint64
	TargetHeight  *uint64
	IsSyncing     bool
	SyncedCount   uint64
}

// SyncManager drives catch-up sync against peers using the DAG engine's
// admission-sequence height as the cursor. The original implementation left
// get_transactions_from_height as a TODO stub returning nothing, which made
// SyncRequest/SyncResponse effectively non-functional; this cursor is the
// fix, backed by Storage.TransactionsFromHeight.
type SyncManager struct {
	params Params

	mu    sync.Mutex
	state SyncState
}

// NewSyncManager builds a manager with CurrentHeight seeded from the
// engine's current height (so a freshly started node reports progress
// relative to what it already has).
func NewSyncManager(params Params, startHeight uint64) *SyncManager {
	return &SyncManager{params: params, state: SyncState{CurrentHeight: startHeight}}
}

// State returns a snapshot of sync progress.
func (sm *SyncManager) State() SyncState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// StartSync begins a sync run targeting targetHeight. Returns
// ErrAlreadySyncing if a run is already in progress.
func (sm *SyncManager) StartSync(targetHeight uint64) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.state.IsSyncing {
		return ErrAlreadySyncing
	}
	sm.state.IsSyncing = true
	sm.state.TargetHeight = &targetHeight
	sm.state.SyncedCount = 0
	return nil
}

// CompleteSync ends the current sync run.
func (sm *SyncManager) CompleteSync() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.state.IsSyncing = false
	sm.state.TargetHeight = nil
}

// HandleSyncRequest answers a SyncRequest by chunking every transaction at
// or after fromHeight into MaxSyncBatchSize-sized SyncResponse messages.
func (sm *SyncManager) HandleSyncRequest(fromHeight uint64, storage dag.Storage, senderID []byte) []Message {
	txs := storage.TransactionsFromHeight(fromHeight)
	if len(txs) == 0 {
		return []Message{NewSyncResponseMessage(nil, senderID)}
	}

	batchSize := sm.params.MaxSyncBatchSize
	if batchSize <= 0 {
		batchSize = len(txs)
	}

	var responses []Message
	for start := 0; start < len(txs); start += batchSize {
		end := start + batchSize
		if end > len(txs) {
			end = len(txs)
		}
		responses = append(responses, NewSyncResponseMessage(txs[start:end], senderID))
	}
	return responses
}

// HandleSyncResponse admits every transaction in msg into engine, advancing
// CurrentHeight and SyncedCount for each success and logging-then-continuing
// past individual failures (a malformed or already-known transaction from
// one peer should never abort the whole batch).
func (sm *SyncManager) HandleSyncResponse(msg Message, engine *dag.Engine) int {
	accepted := 0
	for _, tx := range msg.Transactions {
		if _, err := engine.AddTransaction(tx); err != nil {
			log.Printf("[Sync] rejecting transaction during sync: %v", err)
			continue
		}
		accepted++
	}

	sm.mu.Lock()
	sm.state.SyncedCount += uint64(accepted)
	if h := engine.Height(); h > sm.state.CurrentHeight {
		sm.state.CurrentHeight = h
	}
	sm.mu.Unlock()

	return accepted
}
