// Package balance tracks the spendable balance per demo account. Balances
// are debited on wager placement, credited on claim, and never go negative:
// an overdraft is rejected, not clamped.
package balance

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/samsuzzoha404/Tick-Deriv/internal/logger"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

// ErrInsufficientBalance rejects a debit larger than the current balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger is the exclusive owner of account balances. Every successful
// mutation persists immediately and fires the balance-changed signal.
type Ledger struct {
	store   storage.Store
	initial float64

	mu       sync.Mutex
	balances map[string]float64
	subs     map[int]chan struct{}
	nextSub  int
}

// New returns a ledger seeding unknown accounts with initialBalance.
func New(store storage.Store, initialBalance float64) *Ledger {
	return &Ledger{
		store:    store,
		initial:  initialBalance,
		balances: make(map[string]float64),
		subs:     make(map[int]chan struct{}),
	}
}

// BalanceOf returns the spendable balance for address, loading it from the
// store on first access. A missing, non-finite, or negative stored value is
// treated as corrupted: it is replaced with the initial balance, which is
// immediately re-persisted.
func (l *Ledger) BalanceOf(address string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(address)
}

// Debit subtracts amount from the address's balance. Fails with
// ErrInsufficientBalance and leaves the balance untouched when amount
// exceeds it.
func (l *Ledger) Debit(address string, amount float64) error {
	l.mu.Lock()
	bal := l.load(address)
	if amount > bal {
		l.mu.Unlock()
		return fmt.Errorf("%w: have %.2f, need %.2f", ErrInsufficientBalance, bal, amount)
	}
	l.set(address, bal-amount)
	l.mu.Unlock()
	l.notify()
	return nil
}

// Credit adds amount to the address's balance.
func (l *Ledger) Credit(address string, amount float64) {
	l.mu.Lock()
	l.set(address, l.load(address)+amount)
	l.mu.Unlock()
	l.notify()
}

// Reset restores the address to the initial balance.
func (l *Ledger) Reset(address string) {
	l.mu.Lock()
	l.set(address, l.initial)
	l.mu.Unlock()
	l.notify()
}

// Subscribe registers for the fire-and-forget balance-changed signal. The
// signal carries no payload; subscribers re-read the balance on receipt.
// The returned cancel func unregisters the subscription.
func (l *Ledger) Subscribe() (<-chan struct{}, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	ch := make(chan struct{}, 1)
	l.subs[id] = ch
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

func (l *Ledger) load(address string) float64 {
	if bal, ok := l.balances[address]; ok {
		return bal
	}
	var bal float64
	ok, err := l.store.Load(storage.BalanceKey(address), &bal)
	if err != nil || (ok && (math.IsNaN(bal) || math.IsInf(bal, 0) || bal < 0)) {
		logger.Warn("Replacing corrupted balance for %s with initial balance", address)
		ok = false
	}
	if !ok {
		bal = l.initial
		l.set(address, bal)
		return bal
	}
	l.balances[address] = bal
	return bal
}

// set updates the cached balance and persists it. Caller holds l.mu.
func (l *Ledger) set(address string, bal float64) {
	l.balances[address] = bal
	if err := l.store.Save(storage.BalanceKey(address), bal); err != nil {
		logger.Warn("Failed to persist balance for %s: %v", address, err)
	}
}

// notify broadcasts without blocking: a subscriber that has not drained its
// channel simply coalesces signals.
func (l *Ledger) notify() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
