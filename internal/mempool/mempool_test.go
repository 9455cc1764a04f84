package mempool

import (
	"testing"

	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

func sampleTx(nonce byte) dag.Transaction {
	var ki dag.KeyImage
	ki[0] = nonce
	return dag.NewTransaction(
		[]dag.TxInput{{KeyImage: ki}},
		[]dag.TxOutput{{StealthAddress: []byte{nonce}}},
		dag.ZeroHash, dag.ZeroHash,
	)
}

func TestAddIsIdempotent(t *testing.T) {
	mp := New(10)
	tx := sampleTx(1)

	h1, err := mp.Add(tx)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	h2, err := mp.Add(tx)
	if err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("ids differ across idempotent adds: %v vs %v", h1, h2)
	}
	if mp.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", mp.Len())
	}
}

func TestAddRejectsAtCapacity(t *testing.T) {
	mp := New(1)
	if _, err := mp.Add(sampleTx(1)); err != nil {
		t.Fatalf("Add first: %v", err)
	}
	if _, err := mp.Add(sampleTx(2)); err != ErrFull {
		t.Fatalf("err = %v, want ErrFull", err)
	}
}

func TestRemove(t *testing.T) {
	mp := New(10)
	tx := sampleTx(1)
	h, _ := mp.Add(tx)
	mp.Remove(h)
	if _, ok := mp.Get(h); ok {
		t.Fatal("transaction should be gone after Remove")
	}
}

func TestClear(t *testing.T) {
	mp := New(10)
	mp.Add(sampleTx(1))
	mp.Add(sampleTx(2))
	if mp.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", mp.Len())
	}

	mp.Clear()
	if mp.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", mp.Len())
	}

	if _, err := mp.Add(sampleTx(1)); err != nil {
		t.Fatalf("Add after Clear: %v", err)
	}
}
