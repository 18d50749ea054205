package clock

import (
	"testing"
	"time"

	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
)

func TestRoundIDFor(t *testing.T) {
	var m Manual
	c := New(&m, 20)

	cases := []struct {
		tick int64
		want int64
	}{
		{0, 0}, {19, 0}, {20, 1}, {39, 1}, {40, 2}, {1000, 50},
	}
	for _, tc := range cases {
		if got := c.RoundIDFor(tc.tick); got != tc.want {
			t.Errorf("RoundIDFor(%d) = %d, want %d", tc.tick, got, tc.want)
		}
	}
}

func TestRoundIDFor_NonDecreasing(t *testing.T) {
	var m Manual
	c := New(&m, 20)
	prev := int64(-1)
	for tick := int64(0); tick < 500; tick++ {
		id := c.RoundIDFor(tick)
		if id < prev {
			t.Fatalf("round id regressed: %d after %d at tick %d", id, prev, tick)
		}
		prev = id
	}
}

func TestBoundsFor(t *testing.T) {
	var m Manual
	c := New(&m, 20)
	start, end := c.BoundsFor(5)
	if start != 100 || end != 120 {
		t.Errorf("BoundsFor(5) = [%d, %d), want [100, 120)", start, end)
	}
}

func TestStatusTransitions(t *testing.T) {
	var m Manual
	c := New(&m, 20)

	if got := c.Status(1); got != models.StatusPending {
		t.Errorf("status at tick 0 = %s, want pending", got)
	}
	m.Set(20)
	if got := c.Status(1); got != models.StatusActive {
		t.Errorf("status at tick 20 = %s, want active", got)
	}
	m.Set(39)
	if got := c.Status(1); got != models.StatusActive {
		t.Errorf("status at tick 39 = %s, want active", got)
	}
	m.Set(40)
	if got := c.Status(1); got != models.StatusCompleted {
		t.Errorf("status at tick 40 = %s, want completed", got)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	var m Manual
	c := New(&m, 20)
	rank := map[models.RoundStatus]int{
		models.StatusPending:   0,
		models.StatusActive:    1,
		models.StatusCompleted: 2,
	}
	prev := -1
	for tick := int64(0); tick <= 60; tick++ {
		m.Set(tick)
		r := rank[c.Status(1)]
		if r < prev {
			t.Fatalf("status regressed at tick %d", tick)
		}
		prev = r
	}
}

func TestExactlyOneActiveRound(t *testing.T) {
	var m Manual
	c := New(&m, 20)
	for tick := int64(0); tick < 100; tick += 7 {
		m.Set(tick)
		active := 0
		for id := int64(0); id < 10; id++ {
			if c.Status(id) == models.StatusActive {
				active++
			}
		}
		if active != 1 {
			t.Fatalf("%d active rounds at tick %d, want exactly 1", active, tick)
		}
	}
}

func TestManual_IgnoresBackwardMoves(t *testing.T) {
	var m Manual
	m.Set(50)
	m.Set(30)
	if got := m.CurrentTick(); got != 50 {
		t.Errorf("tick moved backwards to %d", got)
	}
	m.Advance(5)
	if got := m.CurrentTick(); got != 55 {
		t.Errorf("Advance: got %d, want 55", got)
	}
}

func TestWall_DerivesTicksFromElapsedTime(t *testing.T) {
	w := NewWall(time.Second)
	base := wallEpoch.Add(1234 * time.Second)
	w.now = func() time.Time { return base }
	if got := w.CurrentTick(); got != 1234 {
		t.Errorf("CurrentTick = %d, want 1234", got)
	}
	w.now = func() time.Time { return base.Add(1500 * time.Millisecond) }
	if got := w.CurrentTick(); got != 1235 {
		t.Errorf("CurrentTick = %d, want 1235", got)
	}
}
