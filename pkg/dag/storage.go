package dag

import "sync"

// Storage is the durable record of every admitted transaction and its
// confirmation status. The in-memory implementation below satisfies it for
// a single node; internal/storagepg provides a pgx-backed swap-in with the
// same semantics.
//
// Store is non-idempotent: storing a hash twice is an error. The DAG
// engine's AddTransaction does not check Has first, so re-admitting a
// stored transaction returns ErrAlreadyExists; callers that want to drop
// duplicates quietly (the node's gossip receive path) check Has first.
type Storage interface {
	Store(tx Transaction) error

	// StoreAt is Store with an explicit admission-sequence height, the
	// cursor TransactionsFromHeight and the sync manager key off of.
	// Engine always calls this, never Store, so every Storage
	// implementation's sync cursor stays correct; Store exists for
	// callers (tests, one-off insertions) that don't care about it.
	StoreAt(tx Transaction, height uint64) error

	Get(h Hash) (Transaction, error)
	Has(h Hash) bool
	MarkConfirmed(h Hash) error
	IsConfirmed(h Hash) bool
	Count() int

	// TransactionsFromHeight returns every transaction admitted at or after
	// the given height, ordered by height. Height is the DAG engine's
	// monotonic admission sequence, stamped on every transaction at
	// admission time; it closes the sync cursor gap the original
	// implementation left as a stub.
	TransactionsFromHeight(height uint64) []Transaction
}

// storedTx pairs a transaction with the admission height the engine
// assigned it, so MemoryStorage can answer TransactionsFromHeight without
// a second index.
type storedTx struct {
	tx     Transaction
	height uint64
}

// MemoryStorage is the default, in-memory Storage implementation. It holds
// two independently locked maps (transactions, confirmed) per the lock
// ordering in the concurrency design: callers that need both always take
// the transactions lock first.
type MemoryStorage struct {
	mu  sync.RWMutex
	txs map[Hash]storedTx

	cmu   sync.RWMutex
	confd map[Hash]bool
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		txs:   make(map[Hash]storedTx),
		confd: make(map[Hash]bool),
	}
}

// Store records tx at height 0. Use StoreAt from the engine, which
// owns height assignment; Store alone assigns height 0 and exists to
// satisfy the Storage interface for callers that don't care about sync
// cursors (tests, one-off insertions).
func (m *MemoryStorage) Store(tx Transaction) error {
	return m.StoreAt(tx, 0)
}

// StoreAt records tx at an explicit admission height.
func (m *MemoryStorage) StoreAt(tx Transaction, height uint64) error {
	h := tx.ID()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.txs[h]; exists {
		return ErrAlreadyExists
	}
	m.txs[h] = storedTx{tx: tx, height: height}
	return nil
}

func (m *MemoryStorage) Get(h Hash) (Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.txs[h]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return st.tx, nil
}

func (m *MemoryStorage) Has(h Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.txs[h]
	return ok
}

func (m *MemoryStorage) MarkConfirmed(h Hash) error {
	m.mu.RLock()
	_, ok := m.txs[h]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	m.cmu.Lock()
	defer m.cmu.Unlock()
	m.confd[h] = true
	return nil
}

func (m *MemoryStorage) IsConfirmed(h Hash) bool {
	m.cmu.RLock()
	defer m.cmu.RUnlock()
	return m.confd[h]
}

func (m *MemoryStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

func (m *MemoryStorage) TransactionsFromHeight(height uint64) []Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]storedTx, 0)
	for _, st := range m.txs {
		if st.height >= height {
			matched = append(matched, st)
		}
	}
	for i := 1; i < len(matched); i++ {
		j := i
		for j > 0 && matched[j-1].height > matched[j].height {
			matched[j-1], matched[j] = matched[j], matched[j-1]
			j--
		}
	}
	out := make([]Transaction, len(matched))
	for i, st := range matched {
		out[i] = st.tx
	}
	return out
}
