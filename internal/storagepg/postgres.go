// Package storagepg is an optional durable pkg/dag.Storage implementation
// backed by Postgres via pgx/pgxpool. It satisfies the exact same
// interface as dag.MemoryStorage - SPEC_FULL.md treats persistence as a
// swap-in, never business logic, and this package is that swap-in.
package storagepg

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	hash       TEXT PRIMARY KEY,
	height     BIGINT NOT NULL,
	payload    BYTEA NOT NULL,
	confirmed  BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS transactions_height_idx ON transactions (height);
`

// Store is a pgxpool-backed dag.Storage. The DAG engine's in-process
// indices (scores, states, children, tips) are never persisted here - only
// the transaction log and confirmation flag a fresh engine needs to
// rebuild them on restart.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against connStr and ensures the schema exists.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("storagepg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storagepg: ping: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("storagepg: init schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func hashKey(h dag.Hash) string {
	return hex.EncodeToString(h[:])
}

// Store persists tx at height 0. pkg/dag.Engine always calls StoreAt
// instead, which carries the real admission height; Store exists only to
// satisfy dag.Storage for callers that don't care about the sync cursor.
func (s *Store) Store(tx dag.Transaction) error {
	return s.StoreAt(tx, 0)
}

// StoreAt persists tx at an explicit admission height, in a single
// transaction per the teacher's Begin/Exec/Commit pattern.
func (s *Store) StoreAt(tx dag.Transaction, height uint64) error {
	ctx := context.Background()
	payload, err := msgpack.Marshal(tx)
	if err != nil {
		return fmt.Errorf("storagepg: encode transaction: %w", err)
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storagepg: begin: %w", err)
	}
	defer dbTx.Rollback(ctx)

	tag, err := dbTx.Exec(ctx,
		`INSERT INTO transactions (hash, height, payload) VALUES ($1, $2, $3) ON CONFLICT (hash) DO NOTHING`,
		hashKey(tx.ID()), height, payload)
	if err != nil {
		return fmt.Errorf("storagepg: insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dag.ErrAlreadyExists
	}

	return dbTx.Commit(ctx)
}

func (s *Store) Get(h dag.Hash) (dag.Transaction, error) {
	var payload []byte
	err := s.pool.QueryRow(context.Background(),
		`SELECT payload FROM transactions WHERE hash = $1`, hashKey(h)).Scan(&payload)
	if err != nil {
		return dag.Transaction{}, dag.ErrNotFound
	}
	var tx dag.Transaction
	if err := msgpack.Unmarshal(payload, &tx); err != nil {
		return dag.Transaction{}, fmt.Errorf("storagepg: decode transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) Has(h dag.Hash) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE hash = $1)`, hashKey(h)).Scan(&exists)
	return exists
}

func (s *Store) MarkConfirmed(h dag.Hash) error {
	tag, err := s.pool.Exec(context.Background(),
		`UPDATE transactions SET confirmed = TRUE WHERE hash = $1`, hashKey(h))
	if err != nil {
		return fmt.Errorf("storagepg: mark confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dag.ErrNotFound
	}
	return nil
}

func (s *Store) IsConfirmed(h dag.Hash) bool {
	var confirmed bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT confirmed FROM transactions WHERE hash = $1`, hashKey(h)).Scan(&confirmed)
	return confirmed
}

func (s *Store) Count() int {
	var n int
	_ = s.pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n
}

func (s *Store) TransactionsFromHeight(height uint64) []dag.Transaction {
	rows, err := s.pool.Query(context.Background(),
		`SELECT payload FROM transactions WHERE height >= $1 ORDER BY height ASC`, height)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []dag.Transaction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var tx dag.Transaction
		if err := msgpack.Unmarshal(payload, &tx); err != nil {
			continue
		}
		out = append(out, tx)
	}
	return out
}
