// Package rounds owns the per-round records: pool sizes and the write-once
// observed start and end prices that settle each round.
package rounds

import (
	"math/rand"
	"sort"

	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/logger"
	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

// Simulated pool split for lazily created rounds. A non-simulated backend
// would instead derive the pools from real aggregated wagers.
const (
	basePoolMin  = 10000.0
	basePoolSpan = 50000.0
	upShareMin   = 0.30
	upShareSpan  = 0.40
)

// RecordedPrices holds the observed boundary prices for one round. Both
// fields are write-once.
type RecordedPrices struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// Store is the exclusive owner of round records. Round entities are created
// lazily the first time an id is requested and mutated only through Store
// operations. Recorded prices persist across restarts; simulated pools do not.
type Store struct {
	store  storage.Store
	clock  *clock.RoundClock
	rng    *rand.Rand
	rounds map[int64]*models.Round
	prices map[int64]*RecordedPrices
}

// New restores recorded round prices from the store.
func New(store storage.Store, roundClock *clock.RoundClock, rng *rand.Rand) *Store {
	s := &Store{
		store:  store,
		clock:  roundClock,
		rng:    rng,
		rounds: make(map[int64]*models.Round),
		prices: make(map[int64]*RecordedPrices),
	}
	ok, err := store.Load(storage.KeyRoundPrices, &s.prices)
	if err != nil {
		logger.Warn("Replacing corrupted round price records: %v", err)
		s.prices = make(map[int64]*RecordedPrices)
		s.persist()
	} else if !ok {
		s.prices = make(map[int64]*RecordedPrices)
	}
	return s
}

// Ensure returns the round record for id, creating it with a simulated pool
// split on first access. The status is refreshed from the clock on every
// call and never regresses.
func (s *Store) Ensure(id int64) *models.Round {
	r, ok := s.rounds[id]
	if !ok {
		start, end := s.clock.BoundsFor(id)
		basePool := basePoolMin + s.rng.Float64()*basePoolSpan
		upPool := basePool * (upShareMin + s.rng.Float64()*upShareSpan)
		r = &models.Round{
			ID:        id,
			StartTick: start,
			EndTick:   end,
			TotalPool: basePool,
			UpPool:    upPool,
			DownPool:  basePool - upPool,
			Status:    s.clock.Status(id),
		}
		if rec, ok := s.prices[id]; ok {
			s.applyRecorded(r, rec)
		}
		s.rounds[id] = r
	}
	if st := s.clock.Status(id); statusRank(st) > statusRank(r.Status) {
		r.Status = st
	}
	return r
}

// AddToPool adds a placed wager to the round's side pool.
func (s *Store) AddToPool(id int64, direction models.Direction, amount float64) {
	r := s.Ensure(id)
	if direction == models.DirectionUp {
		r.UpPool += amount
	} else {
		r.DownPool += amount
	}
	r.TotalPool = r.UpPool + r.DownPool
}

// RecordStartPrice records the price observed while the round is active.
// A no-op once recorded.
func (s *Store) RecordStartPrice(id int64, price float64) {
	rec := s.recorded(id)
	if rec.Start != nil {
		return
	}
	rec.Start = &price
	s.Ensure(id).StartPrice = &price
	s.persist()
}

// RecordEndPrice records the price observed once the round has completed
// and derives the round's result. A no-op once recorded. Callers must have
// recorded the start price first; tick monotonicity guarantees the ordering
// when every round is observed while active.
func (s *Store) RecordEndPrice(id int64, price float64) {
	rec := s.recorded(id)
	if rec.End != nil {
		return
	}
	if rec.Start == nil {
		logger.Warn("End price for round %d recorded without a start price; result undefined", id)
	}
	rec.End = &price

	r := s.Ensure(id)
	r.EndPrice = &price
	if rec.Start != nil {
		result := models.DirectionDown
		if price > *rec.Start {
			result = models.DirectionUp
		}
		r.Result = &result
	}
	r.Status = models.StatusCompleted
	s.persist()
}

// Recorded returns the recorded boundary prices for a round, or nil when the
// round was never observed.
func (s *Store) Recorded(id int64) *RecordedPrices {
	return s.prices[id]
}

// History returns up to limit completed rounds before currentID, newest first.
func (s *Store) History(currentID int64, limit int) []*models.Round {
	out := make([]*models.Round, 0, limit)
	for id := currentID - 1; id >= 0 && len(out) < limit; id-- {
		out = append(out, s.Ensure(id))
	}
	return out
}

// RecordedIDs returns the ids with recorded prices, ascending. Test and
// display helper.
func (s *Store) RecordedIDs() []int64 {
	ids := make([]int64, 0, len(s.prices))
	for id := range s.prices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) recorded(id int64) *RecordedPrices {
	rec, ok := s.prices[id]
	if !ok {
		rec = &RecordedPrices{}
		s.prices[id] = rec
	}
	return rec
}

func (s *Store) applyRecorded(r *models.Round, rec *RecordedPrices) {
	r.StartPrice = rec.Start
	r.EndPrice = rec.End
	if rec.Start != nil && rec.End != nil {
		result := models.DirectionDown
		if *rec.End > *rec.Start {
			result = models.DirectionUp
		}
		r.Result = &result
	}
}

func (s *Store) persist() {
	if err := s.store.Save(storage.KeyRoundPrices, s.prices); err != nil {
		logger.Warn("Failed to persist round prices: %v", err)
	}
}

func statusRank(st models.RoundStatus) int {
	switch st {
	case models.StatusActive:
		return 1
	case models.StatusCompleted:
		return 2
	default:
		return 0
	}
}
