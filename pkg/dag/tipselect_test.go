package dag

import "testing"

func TestSelectTipsEmptyErrors(t *testing.T) {
	e := newTestEngine()
	sel := NewTipSelector(e, 0.5)
	if _, err := sel.SelectTips(); err != ErrNoTips {
		t.Fatalf("err = %v, want ErrNoTips", err)
	}
}

func TestSelectTipsSingleTipDegenerate(t *testing.T) {
	e := newTestEngine()
	g := genesisTx(t, 1)
	h, err := e.AddTransaction(g)
	if err != nil {
		t.Fatalf("admit genesis: %v", err)
	}

	sel := NewTipSelector(e, 0.5)
	tips, err := sel.SelectTips()
	if err != nil {
		t.Fatalf("SelectTips: %v", err)
	}
	if tips[0] != h || tips[1] != h {
		t.Fatalf("tips = %v, want [%v, %v]", tips, h, h)
	}
}

func TestSelectTipsReturnsDistinctTipsWhenAvailable(t *testing.T) {
	e := newTestEngine()
	g1 := genesisTx(t, 1)
	g2 := genesisTx(t, 2)
	h1, err := e.AddTransaction(g1)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := e.AddTransaction(g2)
	if err != nil {
		t.Fatal(err)
	}

	sel := NewTipSelector(e, 0.5)
	for i := 0; i < 50; i++ {
		tips, err := sel.SelectTips()
		if err != nil {
			t.Fatalf("SelectTips: %v", err)
		}
		if tips[0] != h1 && tips[0] != h2 {
			t.Fatalf("tips[0] = %v, want h1 or h2", tips[0])
		}
		if tips[1] != h1 && tips[1] != h2 {
			t.Fatalf("tips[1] = %v, want h1 or h2", tips[1])
		}
		if tips[0] == tips[1] {
			t.Fatalf("tips = %v, want two distinct tips out of a 2-tip set", tips)
		}
	}
}

func TestSetAlphaClamps(t *testing.T) {
	sel := NewTipSelector(newTestEngine(), 5.0)
	if sel.Alpha() != 1.0 {
		t.Fatalf("Alpha() = %v, want clamped to 1.0", sel.Alpha())
	}
	sel.SetAlpha(-3)
	if sel.Alpha() != 0.0 {
		t.Fatalf("Alpha() = %v, want clamped to 0.0", sel.Alpha())
	}
}

func TestSelectTipsWithPreference(t *testing.T) {
	e := newTestEngine()
	g1 := genesisTx(t, 1)
	g2 := genesisTx(t, 2)
	h1, _ := e.AddTransaction(g1)
	h2, _ := e.AddTransaction(g2)

	// Zero out every candidate except h1: the walk must always land on h1
	// for tip1, and must fall back to h2 for tip2 since no other tip is
	// distinct from h1.
	sel := NewTipSelector(e, 0.5)
	prefer := func(h Hash) float64 {
		if h == h1 {
			return 1.0
		}
		return 0.0
	}

	for i := 0; i < 20; i++ {
		tips, err := sel.SelectTipsWithPreference(prefer)
		if err != nil {
			t.Fatalf("SelectTipsWithPreference: %v", err)
		}
		if tips[0] != h1 {
			t.Fatalf("tips[0] = %v, want h1 (preference forces it)", tips[0])
		}
		if tips[1] != h2 {
			t.Fatalf("tips[1] = %v, want h2 (only remaining distinct tip)", tips[1])
		}
	}
}
