package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/samsuzzoha404/Tick-Deriv/internal/bets"
	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/ledgerclient"
	"github.com/samsuzzoha404/Tick-Deriv/internal/logger"
	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
)

// callTimeout bounds each ledger RPC issued from the synchronous engine
// surface, on top of the client's own transport timeout.
const callTimeout = 10 * time.Second

// Network is the Engine backed by the external ledger: ticks, balances, and
// money movement come from the network, while round observation and bet
// bookkeeping reuse the local components so reads behave identically to the
// simulation.
type Network struct {
	sim    *Simulation
	client *ledgerclient.Client
}

// NewNetwork wires the engine over the ledger client. When the network is
// unreachable, ticks and balances degrade to the local fallbacks so the
// engine keeps functioning.
func NewNetwork(cfg Config, store storage.Store, client *ledgerclient.Client, fallback clock.TickSource, rng *rand.Rand) *Network {
	ticks := &remoteTicks{client: client, fallback: fallback}
	return &Network{
		sim:    NewSimulation(cfg, store, ticks, rng),
		client: client,
	}
}

func (n *Network) CurrentTick() int64                  { return n.sim.CurrentTick() }
func (n *Network) CurrentPrice() models.PricePoint     { return n.sim.CurrentPrice() }
func (n *Network) PriceChange() float64                { return n.sim.PriceChange() }
func (n *Network) CurrentRound() *models.Round         { return n.sim.CurrentRound() }
func (n *Network) Round(id int64) *models.Round        { return n.sim.Round(id) }
func (n *Network) RoundHistory(limit int) []*models.Round {
	return n.sim.RoundHistory(limit)
}
func (n *Network) Bets(address string) []*models.Bet { return n.sim.Bets(address) }
func (n *Network) Claimable(address string) []models.ClaimableWinning {
	return n.sim.Claimable(address)
}
func (n *Network) Stats(address string) models.Stats { return n.sim.Stats(address) }

// PlaceBet validates locally, broadcasts the wager, and appends the record
// on success. The network ledger settles the debit, so the local balance
// ledger is not touched.
func (n *Network) PlaceBet(address string, direction models.Direction, amount float64) (*models.Bet, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: direction must be UP or DOWN", bets.ErrValidation)
	}
	if amount < n.sim.cfg.MinBet || amount > n.sim.cfg.MaxBet {
		return nil, fmt.Errorf("%w: amount must be between %v and %v",
			bets.ErrValidation, n.sim.cfg.MinBet, n.sim.cfg.MaxBet)
	}

	n.sim.observe()
	roundID := n.sim.clock.CurrentRoundID()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	result, err := n.client.BroadcastWager(ctx, address, direction, amount, roundID)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("wager broadcast rejected: %s", result.Message)
	}

	bet := &models.Bet{
		ID:        result.TxID,
		RoundID:   roundID,
		Address:   address,
		Direction: direction,
		Amount:    amount,
		PlacedAt:  time.Now().UnixMilli(),
	}
	n.sim.bets.Append(bet)
	return bet, nil
}

// Claim broadcasts the claim and marks the local record claimed on success.
// The network ledger credits the winnings, so the local balance ledger stays
// untouched, mirroring PlaceBet's append without debit.
func (n *Network) Claim(address string, roundID int64) (float64, error) {
	// Surface the no-winnings rejection locally before spending a broadcast.
	claimable := n.sim.Claimable(address)
	found := false
	for _, c := range claimable {
		if c.RoundID == roundID {
			found = true
			break
		}
	}
	if !found {
		return 0, bets.ErrNoClaimableWinnings
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	result, err := n.client.BroadcastClaim(ctx, address, roundID)
	if err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, fmt.Errorf("claim broadcast rejected: %s", result.Message)
	}
	return n.sim.bets.MarkClaimed(address, roundID)
}

// Balance reads the network balance, falling back to the local ledger when
// the network is unreachable.
func (n *Network) Balance(address string) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	bal, err := n.client.GetBalance(ctx, address)
	if err != nil {
		logger.Warn("Falling back to local balance for %s: %v", address, err)
		return n.sim.Balance(address)
	}
	return bal
}

// remoteTicks reads the tick counter from the network, caching the last
// good value briefly and never moving backwards. When the network has never
// answered, the local fallback source drives the clock.
type remoteTicks struct {
	client   *ledgerclient.Client
	fallback clock.TickSource

	mu        sync.Mutex
	last      int64
	fetchedAt time.Time
}

const remoteTickTTL = 500 * time.Millisecond

func (r *remoteTicks) CurrentTick() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.fetchedAt) < remoteTickTTL && r.last > 0 {
		return r.last
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	tick, err := r.client.GetCurrentTick(ctx)
	if err != nil {
		if r.last > 0 {
			return r.last
		}
		return r.fallback.CurrentTick()
	}
	if tick > r.last {
		r.last = tick
	}
	r.fetchedAt = time.Now()
	return r.last
}
