// Package payout computes pari-mutuel payouts: winners split the combined
// pool, net of the house fee, proportionally to their stake's share of the
// winning side.
package payout

import "github.com/samsuzzoha404/Tick-Deriv/internal/models"

// Engine holds the house fee and exposes the pure payout computation.
type Engine struct {
	HouseFee float64
}

// New returns a payout engine with the given house fee (a fraction, e.g. 0.02).
func New(houseFee float64) Engine {
	return Engine{HouseFee: houseFee}
}

// Compute returns the payout for a stake of amount on the given side of the
// round. The round's side pools are taken as they stood before this stake
// was added: the bettor's share of the after-fee total is
// amount / (sidePool + amount), so a stake on an empty side is entitled to
// the entire after-fee pool. Always well-defined for amount > 0.
func (e Engine) Compute(amount float64, direction models.Direction, round *models.Round) float64 {
	pool := round.Pool(direction)
	oppositePool := round.Pool(direction.Opposite())
	totalAfterFee := (pool + oppositePool) * (1 - e.HouseFee)
	share := amount / (pool + amount)
	return totalAfterFee * share
}

// Multiplier returns payout/amount, a display-only value.
func (e Engine) Multiplier(amount float64, direction models.Direction, round *models.Round) float64 {
	if amount <= 0 {
		return 0
	}
	return e.Compute(amount, direction, round) / amount
}
