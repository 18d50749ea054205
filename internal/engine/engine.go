// Package engine exposes the round settlement engine behind one interface
// with two interchangeable implementations: a local simulation and a
// network-backed variant delegating money movement to the external ledger.
// Callers behave identically against either; the mode is selected once at
// construction.
package engine

import "github.com/samsuzzoha404/Tick-Deriv/internal/models"

// Engine is the settlement engine surface polled by the outer layers.
type Engine interface {
	// CurrentTick returns the clock's monotonic tick counter.
	CurrentTick() int64
	// CurrentPrice advances the price process one sample and returns it.
	CurrentPrice() models.PricePoint
	// PriceChange returns the percentage change over the retained window.
	PriceChange() float64
	// CurrentRound returns the single active round at the current tick.
	CurrentRound() *models.Round
	// Round returns the round record for id.
	Round(id int64) *models.Round
	// RoundHistory returns up to limit completed rounds, newest first.
	RoundHistory(limit int) []*models.Round
	// PlaceBet wagers amount on direction in the current round.
	PlaceBet(address string, direction models.Direction, amount float64) (*models.Bet, error)
	// Bets returns the address's wagers with closed rounds resolved.
	Bets(address string) []*models.Bet
	// Claimable returns the address's resolved winning unclaimed wagers.
	Claimable(address string) []models.ClaimableWinning
	// Claim pays out a winning wager on the given round.
	Claim(address string, roundID int64) (float64, error)
	// Balance returns the address's spendable balance.
	Balance(address string) float64
	// Stats aggregates the address's betting history.
	Stats(address string) models.Stats
}

// Config carries the engine options recognized by both implementations.
type Config struct {
	RoundDuration  int64
	HouseFee       float64
	MinBet         float64
	MaxBet         float64
	InitialBalance float64
	HistoryLimit   int
}
