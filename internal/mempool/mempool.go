// Package mempool holds transactions that have been received or
// constructed locally but not yet admitted into the DAG engine (for
// example, while still validating parents, or waiting for the tip
// selector to pick references for a locally-built transaction).
package mempool

import (
	"errors"
	"sync"

	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

// ErrFull is returned by Add when the mempool is at capacity.
var ErrFull = errors.New("mempool: full")

// Mempool is a bounded Hash->Transaction map. Unlike dag.Storage.Store,
// Add is idempotent: re-adding a transaction already present returns its
// id without error, since duplicate delivery over gossip is the common
// case, not a caller bug.
type Mempool struct {
	mu      sync.RWMutex
	txs     map[dag.Hash]dag.Transaction
	maxSize int
}

// New builds an empty mempool capped at maxSize transactions.
func New(maxSize int) *Mempool {
	return &Mempool{txs: make(map[dag.Hash]dag.Transaction), maxSize: maxSize}
}

// Add inserts tx, returning its id. If the id is already present this is a
// no-op success. ErrFull is returned only when inserting a genuinely new
// transaction would exceed capacity.
func (m *Mempool) Add(tx dag.Transaction) (dag.Hash, error) {
	h := tx.ID()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.txs[h]; exists {
		return h, nil
	}
	if len(m.txs) >= m.maxSize {
		return dag.Hash{}, ErrFull
	}
	m.txs[h] = tx
	return h, nil
}

// Get returns the transaction for h, if present.
func (m *Mempool) Get(h dag.Hash) (dag.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.txs[h]
	return tx, ok
}

// Remove drops h from the mempool, typically once it has been admitted
// into the DAG engine.
func (m *Mempool) Remove(h dag.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txs, h)
}

// Len returns the number of transactions currently held.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

// All returns a snapshot of every held transaction.
func (m *Mempool) All() []dag.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dag.Transaction, 0, len(m.txs))
	for _, tx := range m.txs {
		out = append(out, tx)
	}
	return out
}

// Clear drops every transaction currently held, e.g. once a node has
// finished a sync run and wants to discard stale locally-pending entries
// rather than let them be re-admitted one by one.
func (m *Mempool) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = make(map[dag.Hash]dag.Transaction)
}
