package dag

import "testing"

func TestMemoryStorageStoreAndGet(t *testing.T) {
	s := NewMemoryStorage()
	tx := genesisTx(t, 1)

	if err := s.Store(tx); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Store(tx); err != ErrAlreadyExists {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	got, err := s.Get(tx.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID() != tx.ID() {
		t.Fatal("round-tripped transaction has a different id")
	}

	if !s.Has(tx.ID()) {
		t.Fatal("Has should report true for a stored transaction")
	}
	if s.Has(ZeroHash) {
		t.Fatal("Has should report false for an unknown hash")
	}
}

func TestMemoryStorageMarkConfirmed(t *testing.T) {
	s := NewMemoryStorage()
	tx := genesisTx(t, 1)
	s.Store(tx)

	if s.IsConfirmed(tx.ID()) {
		t.Fatal("should not be confirmed yet")
	}
	if err := s.MarkConfirmed(tx.ID()); err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}
	if !s.IsConfirmed(tx.ID()) {
		t.Fatal("should be confirmed now")
	}

	if err := s.MarkConfirmed(ZeroHash); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorageTransactionsFromHeight(t *testing.T) {
	s := NewMemoryStorage()
	for i := 0; i < 5; i++ {
		tx := genesisTx(t, byte(i))
		if err := s.StoreAt(tx, uint64(i)); err != nil {
			t.Fatalf("StoreAt %d: %v", i, err)
		}
	}

	got := s.TransactionsFromHeight(3)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (heights 3 and 4)", len(got))
	}

	all := s.TransactionsFromHeight(0)
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
}

func TestMemoryStorageCount(t *testing.T) {
	s := NewMemoryStorage()
	if s.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", s.Count())
	}
	s.Store(genesisTx(t, 1))
	s.Store(genesisTx(t, 2))
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
}
