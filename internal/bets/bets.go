// Package bets owns the append-only, per-address wager collections and
// settles each wager once its round has closed.
package bets

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/samsuzzoha404/Tick-Deriv/internal/balance"
	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/logger"
	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
	"github.com/samsuzzoha404/Tick-Deriv/internal/payout"
	"github.com/samsuzzoha404/Tick-Deriv/internal/rounds"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

var (
	// ErrValidation rejects a wager whose amount is out of bounds.
	ErrValidation = errors.New("invalid bet")
	// ErrNoClaimableWinnings rejects a claim with no matching winning bet.
	ErrNoClaimableWinnings = errors.New("no claimable winnings for this round")
)

// fallbackMultiplier settles winning bets on rounds that were never observed
// while active. See Ledger.resolve.
const fallbackMultiplier = 1.9

// Ledger is the exclusive owner of bet records, keyed by address. Records
// are only appended by Place and mutated in place by resolution and claims;
// every mutation persists immediately.
type Ledger struct {
	store    storage.Store
	clock    *clock.RoundClock
	rounds   *rounds.Store
	balances *balance.Ledger
	payouts  payout.Engine
	rng      *rand.Rand

	minBet, maxBet float64
	bets           map[string][]*models.Bet
	loaded         map[string]bool
	now            func() time.Time
}

// New returns a bet ledger enforcing the given wager bounds. The rng drives
// the fallback settlement of unobserved rounds; inject a fixed seed to make
// that path reproducible.
func New(store storage.Store, roundClock *clock.RoundClock, roundStore *rounds.Store,
	balances *balance.Ledger, payouts payout.Engine, rng *rand.Rand, minBet, maxBet float64) *Ledger {
	return &Ledger{
		store:    store,
		clock:    roundClock,
		rounds:   roundStore,
		balances: balances,
		payouts:  payouts,
		rng:      rng,
		minBet:   minBet,
		maxBet:   maxBet,
		bets:     make(map[string][]*models.Bet),
		loaded:   make(map[string]bool),
		now:      time.Now,
	}
}

// Place records a wager on the given round. The amount is validated against
// the wager bounds, then debited from the balance ledger; nothing is
// appended when either step rejects.
func (l *Ledger) Place(address string, direction models.Direction, amount float64, roundID int64) (*models.Bet, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: direction must be UP or DOWN", ErrValidation)
	}
	if amount < l.minBet || amount > l.maxBet {
		return nil, fmt.Errorf("%w: amount must be between %v and %v", ErrValidation, l.minBet, l.maxBet)
	}
	if err := l.balances.Debit(address, amount); err != nil {
		return nil, err
	}

	bet := &models.Bet{
		ID:        uuid.New().String(),
		RoundID:   roundID,
		Address:   address,
		Direction: direction,
		Amount:    amount,
		PlacedAt:  l.now().UnixMilli(),
	}
	l.rounds.AddToPool(roundID, direction, amount)
	l.append(address, bet)
	return bet, nil
}

// Append records an already-broadcast wager without touching the local
// balance. Used by the network-backed engine, where the real ledger settles
// the debit.
func (l *Ledger) Append(bet *models.Bet) {
	l.rounds.AddToPool(bet.RoundID, bet.Direction, bet.Amount)
	l.append(bet.Address, bet)
}

// ListFor returns the address's bets, oldest first, after resolving every
// pending bet whose round has closed. Resolution is idempotent: bets that
// already carry an outcome are returned unchanged.
func (l *Ledger) ListFor(address string) []*models.Bet {
	l.resolvePending(address)
	return l.collection(address)
}

// Claimable returns the address's resolved, winning, not-yet-claimed bets.
func (l *Ledger) Claimable(address string) []models.ClaimableWinning {
	l.resolvePending(address)
	var out []models.ClaimableWinning
	for _, b := range l.collection(address) {
		if b.Won != nil && *b.Won && !b.Claimed {
			amount := 0.0
			if b.Payout != nil {
				amount = *b.Payout
			}
			out = append(out, models.ClaimableWinning{RoundID: b.RoundID, Amount: amount, Direction: b.Direction})
		}
	}
	return out
}

// Claim pays out the first winning unclaimed bet on the given round: the bet
// is marked claimed, the payout credited, and the amount returned. A second
// claim for the same bet fails with ErrNoClaimableWinnings.
func (l *Ledger) Claim(address string, roundID int64) (float64, error) {
	amount, err := l.MarkClaimed(address, roundID)
	if err != nil {
		return 0, err
	}
	l.balances.Credit(address, amount)
	return amount, nil
}

// MarkClaimed marks the first winning unclaimed bet on the given round as
// claimed and returns its payout without crediting the balance ledger. Used
// where the payout settles elsewhere, as when the network ledger credits
// the real account.
func (l *Ledger) MarkClaimed(address string, roundID int64) (float64, error) {
	l.resolvePending(address)
	for _, b := range l.collection(address) {
		if b.RoundID != roundID || b.Claimed || b.Won == nil || !*b.Won {
			continue
		}
		b.Claimed = true
		amount := 0.0
		if b.Payout != nil {
			amount = *b.Payout
		}
		l.persist(address)
		return amount, nil
	}
	return 0, ErrNoClaimableWinnings
}

// Stats aggregates the address's resolved betting history.
func (l *Ledger) Stats(address string) models.Stats {
	var st models.Stats
	for _, b := range l.ListFor(address) {
		st.TotalBets++
		st.TotalWagered += b.Amount
		if b.Won == nil {
			continue
		}
		if *b.Won {
			st.TotalWins++
			if b.Payout != nil {
				st.TotalWon += *b.Payout
			}
		} else {
			st.TotalLosses++
		}
	}
	if resolved := st.TotalWins + st.TotalLosses; resolved > 0 {
		st.WinRate = float64(st.TotalWins) / float64(resolved)
	}
	return st
}

// resolvePending settles every unresolved bet whose round id is strictly
// less than the current round id. Settlement uses the round store's recorded
// boundary prices; a round that was never observed while active falls back
// to a coin flip so bets cannot stay pending forever. The fallback is an
// accepted approximation, logged at warn level, and unreachable as long as
// the poll loop observes each round at least once.
func (l *Ledger) resolvePending(address string) {
	currentID := l.clock.CurrentRoundID()
	changed := false
	for _, b := range l.collection(address) {
		if b.Won != nil || b.RoundID >= currentID {
			continue
		}
		won, amount := l.settle(b)
		b.Won = &won
		b.Payout = &amount
		changed = true
	}
	if changed {
		l.persist(address)
	}
}

func (l *Ledger) settle(b *models.Bet) (won bool, amount float64) {
	rec := l.rounds.Recorded(b.RoundID)
	if rec == nil || rec.Start == nil || rec.End == nil {
		won = l.rng.Float64() > 0.5
		logger.Warn("Round %d closed without recorded prices, settling bet %s by coin flip (won=%v)",
			b.RoundID, b.ID, won)
		if won {
			amount = b.Amount * fallbackMultiplier
		}
		return won, amount
	}

	won = (b.Direction == models.DirectionUp) == (*rec.End > *rec.Start)
	if !won {
		return false, 0
	}
	round := l.rounds.Ensure(b.RoundID)
	// The side pool already contains this stake; the payout share is the
	// stake's proportion of the pool as it stood before placement.
	prior := *round
	if b.Direction == models.DirectionUp {
		prior.UpPool = max(prior.UpPool-b.Amount, 0)
	} else {
		prior.DownPool = max(prior.DownPool-b.Amount, 0)
	}
	return true, l.payouts.Compute(b.Amount, b.Direction, &prior)
}

func (l *Ledger) collection(address string) []*models.Bet {
	if !l.loaded[address] {
		var stored []*models.Bet
		ok, err := l.store.Load(storage.BetsKey(address), &stored)
		if err != nil {
			logger.Warn("Replacing corrupted bet collection for %s: %v", address, err)
		} else if ok {
			l.bets[address] = stored
		}
		l.loaded[address] = true
	}
	return l.bets[address]
}

func (l *Ledger) append(address string, bet *models.Bet) {
	l.bets[address] = append(l.collection(address), bet)
	l.persist(address)
}

func (l *Ledger) persist(address string) {
	if err := l.store.Save(storage.BetsKey(address), l.bets[address]); err != nil {
		logger.Warn("Failed to persist bets for %s: %v", address, err)
	}
}
