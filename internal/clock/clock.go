// Package clock maps the monotonic tick counter onto round identifiers and
// round boundaries.
package clock

import (
	"sync/atomic"
	"time"

	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
)

// TickSource supplies the current tick. Implementations must be
// monotonically non-decreasing.
type TickSource interface {
	CurrentTick() int64
}

// wallEpoch anchors the wall-clock tick derivation so ticks are stable
// across process restarts.
var wallEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Wall derives ticks from wall-clock time elapsed since a fixed epoch.
type Wall struct {
	tickDuration time.Duration
	now          func() time.Time
}

// NewWall returns a wall-clock tick source with the given tick duration.
func NewWall(tickDuration time.Duration) *Wall {
	return &Wall{tickDuration: tickDuration, now: time.Now}
}

func (w *Wall) CurrentTick() int64 {
	return int64(w.now().Sub(wallEpoch) / w.tickDuration)
}

// Manual is a tick source advanced explicitly. Used in tests and wherever
// an external collaborator reports ticks.
type Manual struct {
	tick atomic.Int64
}

func (m *Manual) CurrentTick() int64 {
	return m.tick.Load()
}

// Set moves the tick forward to t. Attempts to move backwards are ignored,
// preserving monotonicity.
func (m *Manual) Set(t int64) {
	for {
		cur := m.tick.Load()
		if t <= cur {
			return
		}
		if m.tick.CompareAndSwap(cur, t) {
			return
		}
	}
}

// Advance moves the tick forward by n.
func (m *Manual) Advance(n int64) {
	m.tick.Add(n)
}

// RoundClock maps ticks to rounds. Exactly one round is active at any tick.
type RoundClock struct {
	src           TickSource
	roundDuration int64
}

// New returns a round clock reading ticks from src, with roundDuration
// ticks per round.
func New(src TickSource, roundDuration int64) *RoundClock {
	return &RoundClock{src: src, roundDuration: roundDuration}
}

func (c *RoundClock) CurrentTick() int64 {
	return c.src.CurrentTick()
}

// CurrentRoundID returns the round the current tick falls in.
func (c *RoundClock) CurrentRoundID() int64 {
	return c.RoundIDFor(c.src.CurrentTick())
}

// RoundIDFor returns floor(tick / roundDuration).
func (c *RoundClock) RoundIDFor(tick int64) int64 {
	return tick / c.roundDuration
}

// BoundsFor returns the half-open tick range [start, end) of a round.
func (c *RoundClock) BoundsFor(roundID int64) (start, end int64) {
	start = roundID * c.roundDuration
	return start, start + c.roundDuration
}

// StatusAt derives a round's status at the given tick.
func (c *RoundClock) StatusAt(roundID, tick int64) models.RoundStatus {
	start, end := c.BoundsFor(roundID)
	switch {
	case tick >= end:
		return models.StatusCompleted
	case tick >= start:
		return models.StatusActive
	default:
		return models.StatusPending
	}
}

// Status derives a round's status at the current tick.
func (c *RoundClock) Status(roundID int64) models.RoundStatus {
	return c.StatusAt(roundID, c.src.CurrentTick())
}
