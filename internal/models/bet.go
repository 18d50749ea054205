// Package models defines the core domain entities: rounds, bets, and price points.
package models

import (
	"errors"
	"math"
)

// Direction is the side of a wager: price goes up or down over the round.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == DirectionUp {
		return DirectionDown
	}
	return DirectionUp
}

// Bet is a single wager record. Won and Payout stay nil until the bet's
// round has closed and the ledger has resolved the outcome; resolution is
// performed exactly once. Claimed only ever transitions false to true, and
// only on winning bets.
type Bet struct {
	ID        string    `json:"id"`
	RoundID   int64     `json:"round_id"`
	Address   string    `json:"address"`
	Direction Direction `json:"direction"`
	Amount    float64   `json:"amount"`
	PlacedAt  int64     `json:"placed_at"` // unix milliseconds
	Claimed   bool      `json:"claimed"`
	Won       *bool     `json:"won"`
	Payout    *float64  `json:"payout"`
}

// Resolved reports whether the bet's outcome has been settled.
func (b *Bet) Resolved() bool {
	return b.Won != nil
}

// Validate checks bet field constraints.
func (b *Bet) Validate() error {
	if b.ID == "" {
		return errors.New("bet ID must not be empty")
	}
	if b.Address == "" {
		return errors.New("bet address must not be empty")
	}
	if !b.Direction.Valid() {
		return errors.New("bet direction must be UP or DOWN")
	}
	if b.Amount <= 0 || math.IsInf(b.Amount, 0) || math.IsNaN(b.Amount) {
		return errors.New("bet amount must be a positive finite number")
	}
	if b.RoundID < 0 {
		return errors.New("bet round ID must not be negative")
	}
	if b.Claimed && (b.Won == nil || !*b.Won) {
		return errors.New("only winning bets can be claimed")
	}
	return nil
}

// ClaimableWinning is a resolved, winning, not-yet-claimed wager. Derived
// from the bet ledger, never stored.
type ClaimableWinning struct {
	RoundID   int64     `json:"round_id"`
	Amount    float64   `json:"amount"`
	Direction Direction `json:"direction"`
}

// Stats aggregates a single address's betting history.
type Stats struct {
	TotalBets    int     `json:"total_bets"`
	TotalWins    int     `json:"total_wins"`
	TotalLosses  int     `json:"total_losses"`
	TotalWagered float64 `json:"total_wagered"`
	TotalWon     float64 `json:"total_won"`
	WinRate      float64 `json:"win_rate"`
}
