package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samsuzzoha404/Tick-Deriv/internal/clock"
	"github.com/samsuzzoha404/Tick-Deriv/internal/config"
	"github.com/samsuzzoha404/Tick-Deriv/internal/engine"
	"github.com/samsuzzoha404/Tick-Deriv/internal/ledgerclient"
	"github.com/samsuzzoha404/Tick-Deriv/internal/logger"
	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
	"github.com/samsuzzoha404/Tick-Deriv/internal/storage"
	"github.com/samsuzzoha404/Tick-Deriv/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	var store storage.Store
	sqlStore, err := storage.NewSQLite(cfg.Storage.DBPath)
	if err != nil {
		// Best-effort persistence: degrade to memory-only for this process.
		logger.Error("Failed to open storage at %s, running memory-only: %v", cfg.Storage.DBPath, err)
		store = storage.NewMemory()
	} else {
		store = sqlStore
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	address := resolveAddress(store, cfg.Engine.Address)

	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	engineCfg := engine.Config{
		RoundDuration:  cfg.Engine.RoundDuration,
		HouseFee:       cfg.Engine.HouseFee,
		MinBet:         cfg.Engine.MinBet,
		MaxBet:         cfg.Engine.MaxBet,
		InitialBalance: cfg.Engine.InitialBalance,
		HistoryLimit:   cfg.Engine.HistoryLimit,
	}

	wall := clock.NewWall(cfg.Engine.TickDuration)

	var eng engine.Engine
	switch cfg.Engine.Mode {
	case config.ModeNetwork:
		client := ledgerclient.NewClient(
			cfg.Ledger.RPCURL,
			cfg.Ledger.Timeout,
			cfg.Ledger.MaxRetries,
			cfg.Ledger.RetryDelayBase,
		)
		eng = engine.NewNetwork(engineCfg, store, client, wall, rng)
		logger.Info("Engine started in network mode against %s", cfg.Ledger.RPCURL)
	default:
		eng = engine.NewSimulation(engineCfg, store, wall, rng)
		logger.Info("Engine started in simulation mode (round: %d ticks, fee: %.1f%%)",
			cfg.Engine.RoundDuration, cfg.Engine.HouseFee*100)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	var notifier *telegram.Client
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(
			cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase,
			address, eng.Balance,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier.ListenForCommands(ctx)
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	if sim, ok := eng.(*engine.Simulation); ok {
		watchBalance(ctx, sim, address)
	}

	run(ctx, cfg, eng, notifier, address)
	logger.Info("Service stopped")
}

// resolveAddress picks the active account: the configured address, falling
// back to the previous session's, and persists the session flags.
func resolveAddress(store storage.Store, configured string) string {
	var session storage.Session
	if ok, err := store.Load(storage.KeySession, &session); err != nil {
		logger.Warn("Ignoring corrupted session state: %v", err)
	} else if ok && configured == "" && session.Address != "" {
		configured = session.Address
	}
	session = storage.Session{Connected: true, Address: configured}
	if err := store.Save(storage.KeySession, session); err != nil {
		logger.Warn("Failed to persist session state: %v", err)
	}
	return configured
}

// watchBalance re-reads and logs the balance whenever the ledger signals a
// change. Subscribers get no payload; the re-read is the contract.
func watchBalance(ctx context.Context, sim *engine.Simulation, address string) {
	ch, cancel := sim.Balances().Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				logger.Info("Balance changed: %s now holds %.2f", address, sim.Balance(address))
			}
		}
	}()
}

// run drives the poll loops until ctx is cancelled. Polling is what moves
// the engine forward: the tick loop observes rounds so boundary prices are
// recorded, the price loop advances the walk, and the balance loop resolves
// closed bets and surfaces claimable winnings.
func run(ctx context.Context, cfg *config.Config, eng engine.Engine, notifier *telegram.Client, address string) {
	tickTicker := time.NewTicker(cfg.Poll.Tick)
	priceTicker := time.NewTicker(cfg.Poll.Price)
	roundsTicker := time.NewTicker(cfg.Poll.Rounds)
	balanceTicker := time.NewTicker(cfg.Poll.Balance)
	defer tickTicker.Stop()
	defer priceTicker.Stop()
	defer roundsTicker.Stop()
	defer balanceTicker.Stop()

	lastRoundID := int64(-1)
	claimFailing := false
	for {
		select {
		case <-ctx.Done():
			return

		case <-tickTicker.C:
			round := eng.CurrentRound()
			if round.ID != lastRoundID {
				if lastRoundID >= 0 {
					settled := eng.Round(lastRoundID)
					logRoundSettled(settled)
					if notifier != nil {
						if err := notifier.SendSettlement(settled); err != nil {
							logger.Warn("Failed to send settlement notification: %v", err)
						}
					}
				}
				logger.Info("Round %d active (ticks %d-%d, pools up %.0f / down %.0f)",
					round.ID, round.StartTick, round.EndTick, round.UpPool, round.DownPool)
				lastRoundID = round.ID
			}

		case <-priceTicker.C:
			point := eng.CurrentPrice()
			logger.Debug("Price %.8f at tick %d (%+.2f%% over window)",
				point.Value, point.AtTick, eng.PriceChange())

		case <-roundsTicker.C:
			history := eng.RoundHistory(cfg.Engine.HistoryLimit)
			logger.Debug("Round history refreshed: %d completed rounds", len(history))

		case <-balanceTicker.C:
			logger.Debug("Balance of %s: %.2f", address, eng.Balance(address))
			claimables := eng.Claimable(address)
			for _, c := range claimables {
				if !cfg.Engine.AutoClaim {
					logger.Info("Claimable winnings on round %d: %.2f (%s)", c.RoundID, c.Amount, c.Direction)
					continue
				}
				amount, err := eng.Claim(address, c.RoundID)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						logger.Warn("Failed to claim round %d: %v", c.RoundID, err)
						if notifier != nil && !claimFailing {
							if sendErr := notifier.SendError(fmt.Errorf("claiming round %d: %w", c.RoundID, err)); sendErr != nil {
								logger.Warn("Failed to send error notification: %v", sendErr)
							}
						}
						claimFailing = true
					}
					continue
				}
				claimFailing = false
				logger.Info("Claimed %.2f from round %d", amount, c.RoundID)
				if notifier != nil {
					if err := notifier.SendClaim(address, c.RoundID, amount); err != nil {
						logger.Warn("Failed to send claim notification: %v", err)
					}
				}
			}
		}
	}
}

func logRoundSettled(round *models.Round) {
	result := "undecided"
	if round.Result != nil {
		result = string(*round.Result)
	}
	start, end := 0.0, 0.0
	if round.StartPrice != nil {
		start = *round.StartPrice
	}
	if round.EndPrice != nil {
		end = *round.EndPrice
	}
	logger.Info("Round %d completed: %s (%.8f -> %.8f)", round.ID, result, start, end)
}
