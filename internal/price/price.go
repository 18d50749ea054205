// Package price generates the synthetic asset price as a damped random walk
// and keeps a bounded rolling history for display.
package price

import (
	"math"
	"math/rand"

	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/logger"
	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

// Walk parameters. The band keeps the simulated price strictly positive.
const (
	BasePrice   = 0.000025
	damping     = 0.95
	maxForce    = 0.0000002
	maxVelocity = 0.000001
	priceFloor  = 0.00001
	priceCeil   = 0.00005

	historyCap = 120
)

type walkState struct {
	Price    float64 `json:"price"`
	Velocity float64 `json:"velocity"`
}

// Process is the price generator. Not safe for concurrent use; the engine
// is the sole caller.
type Process struct {
	store storage.Store
	ticks clock.TickSource
	rng   *rand.Rand

	price    float64
	velocity float64
	history  []models.PricePoint
}

// New restores the walk from the store, or starts it at BasePrice. The rng
// is injected so price evolution is reproducible under a fixed seed.
func New(store storage.Store, ticks clock.TickSource, rng *rand.Rand) *Process {
	p := &Process{store: store, ticks: ticks, rng: rng, price: BasePrice}

	var st walkState
	ok, err := store.Load(storage.KeyPrice, &st)
	switch {
	case err != nil:
		logger.Warn("Replacing corrupted price state: %v", err)
		p.persistState()
	case ok && isUsable(st.Price):
		p.price = st.Price
		if isFinite(st.Velocity) {
			p.velocity = clamp(st.Velocity, -maxVelocity, maxVelocity)
		}
	case ok:
		logger.Warn("Persisted price %v out of band, restarting at base price", st.Price)
		p.persistState()
	}

	var hist []models.PricePoint
	if ok, err := store.Load(storage.KeyPriceHistory, &hist); err != nil {
		logger.Warn("Dropping corrupted price history: %v", err)
	} else if ok {
		if len(hist) > historyCap {
			hist = hist[len(hist)-historyCap:]
		}
		p.history = hist
	}

	return p
}

// Advance steps the walk one sample and returns the new price. A uniform
// random force accelerates a damped velocity; both velocity and price are
// clamped to their bands. The new sample is appended to the history, with
// the oldest sample evicted once the capacity is reached.
func (p *Process) Advance() float64 {
	force := (p.rng.Float64()*2 - 1) * maxForce
	p.velocity = clamp(p.velocity*damping+force, -maxVelocity, maxVelocity)
	p.price = clamp(p.price+p.velocity, priceFloor, priceCeil)

	p.history = append(p.history, models.PricePoint{Value: p.price, AtTick: p.ticks.CurrentTick()})
	if len(p.history) > historyCap {
		p.history = p.history[1:]
	}

	p.persistState()
	if err := p.store.Save(storage.KeyPriceHistory, p.history); err != nil {
		logger.Warn("Failed to persist price history: %v", err)
	}
	return p.price
}

// Current returns the latest price without advancing the walk.
func (p *Process) Current() float64 {
	return p.price
}

// History returns the retained samples, oldest first.
func (p *Process) History() []models.PricePoint {
	out := make([]models.PricePoint, len(p.history))
	copy(out, p.history)
	return out
}

// ChangeOverWindow returns the percentage change between the oldest retained
// sample and the current price. Zero until two samples exist.
func (p *Process) ChangeOverWindow() float64 {
	if len(p.history) < 2 {
		return 0
	}
	oldest := p.history[0].Value
	if oldest == 0 {
		return 0
	}
	return (p.price - oldest) / oldest * 100
}

func (p *Process) persistState() {
	if err := p.store.Save(storage.KeyPrice, walkState{Price: p.price, Velocity: p.velocity}); err != nil {
		logger.Warn("Failed to persist price state: %v", err)
	}
}

func isUsable(v float64) bool {
	return isFinite(v) && v >= priceFloor && v <= priceCeil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
