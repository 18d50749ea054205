package price

import (
	"math/rand"
	"testing"

	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

func newTestProcess(t *testing.T, store storage.Store, seed int64) (*Process, *clock.Manual) {
	t.Helper()
	m := &clock.Manual{}
	return New(store, m, rand.New(rand.NewSource(seed))), m
}

func TestAdvance_DeterministicUnderFixedSeed(t *testing.T) {
	a, _ := newTestProcess(t, storage.NewMemory(), 42)
	b, _ := newTestProcess(t, storage.NewMemory(), 42)

	for i := 0; i < 200; i++ {
		if pa, pb := a.Advance(), b.Advance(); pa != pb {
			t.Fatalf("walks diverged at step %d: %v vs %v", i, pa, pb)
		}
	}
}

func TestAdvance_StaysInBand(t *testing.T) {
	p, _ := newTestProcess(t, storage.NewMemory(), 7)
	for i := 0; i < 5000; i++ {
		v := p.Advance()
		if v < priceFloor || v > priceCeil {
			t.Fatalf("price %v escaped band [%v, %v] at step %d", v, priceFloor, priceCeil, i)
		}
	}
}

func TestHistory_BoundedFIFO(t *testing.T) {
	p, m := newTestProcess(t, storage.NewMemory(), 1)
	for i := 0; i < historyCap+30; i++ {
		m.Set(int64(i + 1))
		p.Advance()
	}
	hist := p.History()
	if len(hist) != historyCap {
		t.Fatalf("history length = %d, want %d", len(hist), historyCap)
	}
	// Oldest entries were evicted first.
	if hist[0].AtTick != 31 {
		t.Errorf("oldest retained sample at tick %d, want 31", hist[0].AtTick)
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].AtTick < hist[i-1].AtTick {
			t.Fatalf("history out of order at index %d", i)
		}
	}
}

func TestChangeOverWindow(t *testing.T) {
	p, _ := newTestProcess(t, storage.NewMemory(), 3)
	if got := p.ChangeOverWindow(); got != 0 {
		t.Errorf("change with empty history = %v, want 0", got)
	}
	for i := 0; i < 50; i++ {
		p.Advance()
	}
	oldest := p.History()[0].Value
	want := (p.Current() - oldest) / oldest * 100
	if got := p.ChangeOverWindow(); got != want {
		t.Errorf("ChangeOverWindow = %v, want %v", got, want)
	}
}

func TestNew_RestoresPersistedWalk(t *testing.T) {
	store := storage.NewMemory()
	p, _ := newTestProcess(t, store, 42)
	for i := 0; i < 25; i++ {
		p.Advance()
	}
	wantPrice := p.Current()
	wantHist := p.History()

	restored, _ := newTestProcess(t, store, 42)
	if restored.Current() != wantPrice {
		t.Errorf("restored price = %v, want %v", restored.Current(), wantPrice)
	}
	gotHist := restored.History()
	if len(gotHist) != len(wantHist) {
		t.Fatalf("restored history length = %d, want %d", len(gotHist), len(wantHist))
	}
	for i := range wantHist {
		if gotHist[i] != wantHist[i] {
			t.Fatalf("restored history differs at index %d: %+v vs %+v", i, gotHist[i], wantHist[i])
		}
	}
}

func TestNew_HealsCorruptedState(t *testing.T) {
	store := storage.NewMemory()
	store.SetRaw(storage.KeyPrice, []byte(`"garbage"`))

	p, _ := newTestProcess(t, store, 42)
	if p.Current() != BasePrice {
		t.Errorf("price after corrupted load = %v, want base price %v", p.Current(), BasePrice)
	}

	// The corrected state was re-persisted.
	var st walkState
	ok, err := store.Load(storage.KeyPrice, &st)
	if err != nil || !ok {
		t.Fatalf("corrected state not persisted: ok=%v err=%v", ok, err)
	}
	if st.Price != BasePrice {
		t.Errorf("persisted corrected price = %v, want %v", st.Price, BasePrice)
	}
}

func TestNew_HealsOutOfBandPrice(t *testing.T) {
	store := storage.NewMemory()
	store.SetRaw(storage.KeyPrice, []byte(`{"price": -5, "velocity": 0}`))

	p, _ := newTestProcess(t, store, 42)
	if p.Current() != BasePrice {
		t.Errorf("price after out-of-band load = %v, want %v", p.Current(), BasePrice)
	}
}
