package engine

import (
	"math/rand"

	"github.com/samsuzzoha404/Tick-Deriv/internal/balance"
	"github.com/samsuzzoha404/Tick-Deriv/internal/bets"
	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
	"github.com/samsuzzoha404/Tick-Deriv/internal/payout"
	"github.com/samsuzzoha404/Tick-Deriv/internal/price"
	"github.com/samsuzzoha404/Tick-Deriv/internal/rounds"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

// Simulation runs the whole market locally: synthetic price, simulated
// pools, demo balances. Every read operation first observes the clock so
// each round's boundary prices are recorded while it can still be done
// (start while active, end at the first sight of completion), which keeps
// the bet ledger's coin-flip fallback unreachable under normal polling.
type Simulation struct {
	cfg      Config
	clock    *clock.RoundClock
	price    *price.Process
	rounds   *rounds.Store
	balances *balance.Ledger
	bets     *bets.Ledger
}

// NewSimulation wires the local components over one store and one random
// source. Inject a fixed-seed rng for reproducible runs.
func NewSimulation(cfg Config, store storage.Store, ticks clock.TickSource, rng *rand.Rand) *Simulation {
	roundClock := clock.New(ticks, cfg.RoundDuration)
	roundStore := rounds.New(store, roundClock, rng)
	balances := balance.New(store, cfg.InitialBalance)
	payouts := payout.New(cfg.HouseFee)
	return &Simulation{
		cfg:      cfg,
		clock:    roundClock,
		price:    price.New(store, roundClock, rng),
		rounds:   roundStore,
		balances: balances,
		bets:     bets.New(store, roundClock, roundStore, balances, payouts, rng, cfg.MinBet, cfg.MaxBet),
	}
}

func (s *Simulation) CurrentTick() int64 {
	return s.clock.CurrentTick()
}

func (s *Simulation) CurrentPrice() models.PricePoint {
	value := s.price.Advance()
	s.observe()
	return models.PricePoint{Value: value, AtTick: s.clock.CurrentTick()}
}

func (s *Simulation) PriceChange() float64 {
	return s.price.ChangeOverWindow()
}

// PriceHistory returns the retained price samples, oldest first.
func (s *Simulation) PriceHistory() []models.PricePoint {
	return s.price.History()
}

func (s *Simulation) CurrentRound() *models.Round {
	s.observe()
	return s.rounds.Ensure(s.clock.CurrentRoundID())
}

func (s *Simulation) Round(id int64) *models.Round {
	s.observe()
	return s.rounds.Ensure(id)
}

func (s *Simulation) RoundHistory(limit int) []*models.Round {
	s.observe()
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.rounds.History(s.clock.CurrentRoundID(), limit)
}

func (s *Simulation) PlaceBet(address string, direction models.Direction, amount float64) (*models.Bet, error) {
	s.observe()
	return s.bets.Place(address, direction, amount, s.clock.CurrentRoundID())
}

func (s *Simulation) Bets(address string) []*models.Bet {
	s.observe()
	return s.bets.ListFor(address)
}

func (s *Simulation) Claimable(address string) []models.ClaimableWinning {
	s.observe()
	return s.bets.Claimable(address)
}

func (s *Simulation) Claim(address string, roundID int64) (float64, error) {
	s.observe()
	return s.bets.Claim(address, roundID)
}

func (s *Simulation) Balance(address string) float64 {
	return s.balances.BalanceOf(address)
}

func (s *Simulation) Stats(address string) models.Stats {
	s.observe()
	return s.bets.Stats(address)
}

// Balances exposes the balance ledger for subscription wiring.
func (s *Simulation) Balances() *balance.Ledger {
	return s.balances
}

// ResetAccount restores the demo account to the initial balance.
func (s *Simulation) ResetAccount(address string) {
	s.balances.Reset(address)
}

// observe records the current round's start price and closes out the
// previous round with the current price the first time it is seen
// completed. Ticks are monotonic, so the start of a round is always
// recorded before its end.
func (s *Simulation) observe() {
	id := s.clock.CurrentRoundID()
	current := s.price.Current()
	s.rounds.RecordStartPrice(id, current)
	if id > 0 {
		prev := s.rounds.Recorded(id - 1)
		if prev == nil || prev.End == nil {
			if prev == nil || prev.Start == nil {
				// Round skipped entirely (e.g. process was down); leave it
				// for the fallback settlement rather than fabricating prices.
				return
			}
			s.rounds.RecordEndPrice(id-1, current)
		}
	}
}
