package models

import (
	"math"
	"testing"
)

func TestDirection(t *testing.T) {
	if !DirectionUp.Valid() || !DirectionDown.Valid() {
		t.Error("UP and DOWN must be valid directions")
	}
	if Direction("SIDEWAYS").Valid() {
		t.Error("unknown direction must not be valid")
	}
	if DirectionUp.Opposite() != DirectionDown {
		t.Error("opposite of UP must be DOWN")
	}
	if DirectionDown.Opposite() != DirectionUp {
		t.Error("opposite of DOWN must be UP")
	}
}

func validBet() Bet {
	return Bet{
		ID:        "bet-1",
		RoundID:   7,
		Address:   "DEMO0001",
		Direction: DirectionUp,
		Amount:    100,
		PlacedAt:  1700000000000,
	}
}

func TestBetValidate(t *testing.T) {
	won := true
	lost := false

	cases := []struct {
		name    string
		mutate  func(*Bet)
		wantErr bool
	}{
		{"valid", func(b *Bet) {}, false},
		{"empty id", func(b *Bet) { b.ID = "" }, true},
		{"empty address", func(b *Bet) { b.Address = "" }, true},
		{"bad direction", func(b *Bet) { b.Direction = "SIDEWAYS" }, true},
		{"zero amount", func(b *Bet) { b.Amount = 0 }, true},
		{"negative amount", func(b *Bet) { b.Amount = -5 }, true},
		{"nan amount", func(b *Bet) { b.Amount = math.NaN() }, true},
		{"inf amount", func(b *Bet) { b.Amount = math.Inf(1) }, true},
		{"negative round", func(b *Bet) { b.RoundID = -1 }, true},
		{"claimed unresolved", func(b *Bet) { b.Claimed = true }, true},
		{"claimed loser", func(b *Bet) { b.Claimed = true; b.Won = &lost }, true},
		{"claimed winner", func(b *Bet) { b.Claimed = true; b.Won = &won }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBet()
			tc.mutate(&b)
			err := b.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBetResolved(t *testing.T) {
	b := validBet()
	if b.Resolved() {
		t.Error("bet with nil Won must not be resolved")
	}
	won := false
	b.Won = &won
	if !b.Resolved() {
		t.Error("bet with non-nil Won must be resolved")
	}
}
