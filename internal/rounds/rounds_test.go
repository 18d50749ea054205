package rounds

import (
	"math"
	"math/rand"
	"testing"

	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

func newTestStore(t *testing.T, store storage.Store) (*Store, *clock.Manual) {
	t.Helper()
	m := &clock.Manual{}
	c := clock.New(m, 20)
	return New(store, c, rand.New(rand.NewSource(42))), m
}

func TestEnsure_CreatesLazilyWithPoolInvariant(t *testing.T) {
	s, m := newTestStore(t, storage.NewMemory())
	m.Set(10)

	r := s.Ensure(0)
	if r.ID != 0 || r.StartTick != 0 || r.EndTick != 20 {
		t.Errorf("bounds wrong: %+v", r)
	}
	if r.Status != models.StatusActive {
		t.Errorf("status = %s, want active", r.Status)
	}
	if math.Abs(r.TotalPool-(r.UpPool+r.DownPool)) > 1e-9 {
		t.Errorf("totalPool %v != upPool %v + downPool %v", r.TotalPool, r.UpPool, r.DownPool)
	}
	if r.UpPool <= 0 || r.DownPool <= 0 {
		t.Errorf("simulated pools must be positive: %+v", r)
	}
	if r.StartPrice != nil || r.EndPrice != nil || r.Result != nil {
		t.Errorf("fresh round must carry no prices or result: %+v", r)
	}
	if s.Ensure(0) != r {
		t.Error("Ensure must return the same record on repeat access")
	}
}

func TestAddToPool(t *testing.T) {
	s, m := newTestStore(t, storage.NewMemory())
	m.Set(5)
	r := s.Ensure(0)
	up, down := r.UpPool, r.DownPool

	s.AddToPool(0, models.DirectionUp, 100)
	if r.UpPool != up+100 || r.DownPool != down {
		t.Errorf("pools after UP stake: %v/%v, want %v/%v", r.UpPool, r.DownPool, up+100, down)
	}
	if math.Abs(r.TotalPool-(r.UpPool+r.DownPool)) > 1e-9 {
		t.Errorf("totalPool invariant broken: %+v", r)
	}
}

func TestRecordPrices_WriteOnceAndResult(t *testing.T) {
	s, m := newTestStore(t, storage.NewMemory())
	m.Set(5)

	s.RecordStartPrice(0, 100)
	s.RecordStartPrice(0, 999) // no-op

	m.Set(25)
	s.RecordEndPrice(0, 110)
	s.RecordEndPrice(0, 1) // no-op

	rec := s.Recorded(0)
	if rec == nil || rec.Start == nil || rec.End == nil {
		t.Fatal("recorded prices missing")
	}
	if *rec.Start != 100 || *rec.End != 110 {
		t.Errorf("recorded %v/%v, want 100/110", *rec.Start, *rec.End)
	}

	r := s.Ensure(0)
	if r.Result == nil || *r.Result != models.DirectionUp {
		t.Errorf("result = %v, want UP", r.Result)
	}
	if r.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", r.Status)
	}
}

func TestRecordEndPrice_DownResult(t *testing.T) {
	s, m := newTestStore(t, storage.NewMemory())
	m.Set(5)
	s.RecordStartPrice(0, 110)
	m.Set(25)
	s.RecordEndPrice(0, 100)

	r := s.Ensure(0)
	if r.Result == nil || *r.Result != models.DirectionDown {
		t.Errorf("result = %v, want DOWN", r.Result)
	}
}

func TestRecordedPrices_PersistAcrossRestart(t *testing.T) {
	store := storage.NewMemory()
	s, m := newTestStore(t, store)
	m.Set(5)
	s.RecordStartPrice(0, 100)
	m.Set(25)
	s.RecordEndPrice(0, 110)

	restored, m2 := newTestStore(t, store)
	m2.Set(25)
	rec := restored.Recorded(0)
	if rec == nil || rec.Start == nil || rec.End == nil || *rec.Start != 100 || *rec.End != 110 {
		t.Fatalf("restored records wrong: %+v", rec)
	}
	r := restored.Ensure(0)
	if r.StartPrice == nil || *r.StartPrice != 100 {
		t.Errorf("restored round start price = %v, want 100", r.StartPrice)
	}
	if r.Result == nil || *r.Result != models.DirectionUp {
		t.Errorf("restored round result = %v, want UP", r.Result)
	}
}

func TestHistory(t *testing.T) {
	s, m := newTestStore(t, storage.NewMemory())
	m.Set(110) // round 5 active

	hist := s.History(5, 3)
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	for i, want := range []int64{4, 3, 2} {
		if hist[i].ID != want {
			t.Errorf("history[%d].ID = %d, want %d", i, hist[i].ID, want)
		}
		if hist[i].Status != models.StatusCompleted {
			t.Errorf("history[%d].Status = %s, want completed", i, hist[i].Status)
		}
	}

	if got := s.History(1, 10); len(got) != 1 {
		t.Errorf("history near genesis = %d rounds, want 1", len(got))
	}
}

func TestStatusNeverRegressesOnEnsure(t *testing.T) {
	s, m := newTestStore(t, storage.NewMemory())
	m.Set(25)
	r := s.Ensure(0)
	if r.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", r.Status)
	}
	// Clock cannot go backwards, but a stale status must never overwrite a
	// later one either.
	if got := s.Ensure(0).Status; got != models.StatusCompleted {
		t.Errorf("status regressed to %s", got)
	}
}
