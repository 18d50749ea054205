package balance

import (
	"errors"
	"testing"

	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

const addr = "DEMO0001"

func TestBalanceOf_SeedsUnknownAccount(t *testing.T) {
	l := New(storage.NewMemory(), 10000)
	if got := l.BalanceOf(addr); got != 10000 {
		t.Errorf("BalanceOf = %v, want 10000", got)
	}
}

func TestDebitAndCredit(t *testing.T) {
	store := storage.NewMemory()
	l := New(store, 1000)

	if err := l.Debit(addr, 300); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if got := l.BalanceOf(addr); got != 700 {
		t.Errorf("balance after debit = %v, want 700", got)
	}

	l.Credit(addr, 50)
	if got := l.BalanceOf(addr); got != 750 {
		t.Errorf("balance after credit = %v, want 750", got)
	}

	// Mutations persist immediately.
	var stored float64
	if ok, err := store.Load(storage.BalanceKey(addr), &stored); !ok || err != nil {
		t.Fatalf("balance not persisted: ok=%v err=%v", ok, err)
	}
	if stored != 750 {
		t.Errorf("persisted balance = %v, want 750", stored)
	}
}

func TestDebit_InsufficientBalanceLeavesStateUntouched(t *testing.T) {
	l := New(storage.NewMemory(), 30)

	err := l.Debit(addr, 50)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if got := l.BalanceOf(addr); got != 30 {
		t.Errorf("balance after rejected debit = %v, want 30", got)
	}
}

func TestCorruptedBalance_HealsToInitialAndRePersists(t *testing.T) {
	store := storage.NewMemory()
	store.SetRaw(storage.BalanceKey(addr), []byte(`"not-a-number"`))

	l := New(store, 10000)
	if got := l.BalanceOf(addr); got != 10000 {
		t.Errorf("balance after corrupted load = %v, want initial 10000", got)
	}

	var stored float64
	if ok, err := store.Load(storage.BalanceKey(addr), &stored); !ok || err != nil {
		t.Fatalf("corrected balance not persisted: ok=%v err=%v", ok, err)
	}
	if stored != 10000 {
		t.Errorf("persisted corrected balance = %v, want 10000", stored)
	}
}

func TestNegativeStoredBalance_Heals(t *testing.T) {
	store := storage.NewMemory()
	store.SetRaw(storage.BalanceKey(addr), []byte(`-250`))

	l := New(store, 500)
	if got := l.BalanceOf(addr); got != 500 {
		t.Errorf("balance after negative load = %v, want 500", got)
	}
}

func TestSubscribe_SignalsOnEveryMutation(t *testing.T) {
	l := New(storage.NewMemory(), 1000)
	ch, cancel := l.Subscribe()
	defer cancel()

	if err := l.Debit(addr, 10); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	select {
	case <-ch:
	default:
		t.Fatal("no signal after debit")
	}

	l.Credit(addr, 10)
	select {
	case <-ch:
	default:
		t.Fatal("no signal after credit")
	}
}

func TestSubscribe_CancelStopsSignals(t *testing.T) {
	l := New(storage.NewMemory(), 1000)
	ch, cancel := l.Subscribe()
	cancel()

	l.Credit(addr, 10)
	select {
	case <-ch:
		t.Fatal("signal received after cancel")
	default:
	}
}

func TestReset(t *testing.T) {
	l := New(storage.NewMemory(), 1000)
	if err := l.Debit(addr, 900); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	l.Reset(addr)
	if got := l.BalanceOf(addr); got != 1000 {
		t.Errorf("balance after reset = %v, want 1000", got)
	}
}

// failingStore rejects every write, modeling a full or unavailable disk.
type failingStore struct{ storage.Store }

func (s *failingStore) Save(key string, v any) error {
	return errors.New("disk full")
}

func TestLedger_InMemoryStateSurvivesSaveFailures(t *testing.T) {
	l := New(&failingStore{storage.NewMemory()}, 1000)

	if err := l.Debit(addr, 300); err != nil {
		t.Fatalf("Debit with failing store: %v", err)
	}
	l.Credit(addr, 50)
	if got := l.BalanceOf(addr); got != 750 {
		t.Errorf("balance = %v, want 750", got)
	}
	if err := l.Debit(addr, 800); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
}
