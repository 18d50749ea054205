// Package config loads the application configuration from YAML with
// environment-variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Mode selects the engine backend.
const (
	ModeSimulation = "simulation"
	ModeNetwork    = "network"
)

// Config represents the complete application configuration.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Poll     PollConfig     `mapstructure:"poll"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EngineConfig holds the settlement engine options.
type EngineConfig struct {
	Mode           string        `mapstructure:"mode"`
	Address        string        `mapstructure:"address"`
	RoundDuration  int64         `mapstructure:"round_duration"` // ticks per round
	TickDuration   time.Duration `mapstructure:"tick_duration"`  // wall-clock time per tick
	HouseFee       float64       `mapstructure:"house_fee"`
	MinBet         float64       `mapstructure:"min_bet"`
	MaxBet         float64       `mapstructure:"max_bet"`
	InitialBalance float64       `mapstructure:"initial_balance"`
	HistoryLimit   int           `mapstructure:"history_limit"`
	AutoClaim      bool          `mapstructure:"auto_claim"`
	Seed           int64         `mapstructure:"seed"` // 0 = time-seeded
}

// LedgerConfig holds the external ledger network client options.
type LedgerConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// PollConfig holds the scheduling intervals driving forward progress.
type PollConfig struct {
	Tick    time.Duration `mapstructure:"tick"`
	Price   time.Duration `mapstructure:"price"`
	Rounds  time.Duration `mapstructure:"rounds"`
	Balance time.Duration `mapstructure:"balance"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("TICKDERIV")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.mode", ModeSimulation)
	v.SetDefault("engine.address", "DEMO000000000000000000000000000000000000000000000000000001")
	v.SetDefault("engine.round_duration", 20)
	v.SetDefault("engine.tick_duration", "1s")
	v.SetDefault("engine.house_fee", 0.02)
	v.SetDefault("engine.min_bet", 1.0)
	v.SetDefault("engine.max_bet", 10000.0)
	v.SetDefault("engine.initial_balance", 10000.0)
	v.SetDefault("engine.history_limit", 20)
	v.SetDefault("engine.auto_claim", false)
	v.SetDefault("engine.seed", 0)

	v.SetDefault("ledger.rpc_url", "https://rpc.qubic.org")
	v.SetDefault("ledger.timeout", "30s")
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.retry_delay_base", "1s")

	v.SetDefault("poll.tick", "1s")
	v.SetDefault("poll.price", "2s")
	v.SetDefault("poll.rounds", "5s")
	v.SetDefault("poll.balance", "2s")

	v.SetDefault("storage.db_path", "./data/tickderiv.db")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Engine.Mode != ModeSimulation && c.Engine.Mode != ModeNetwork {
		return fmt.Errorf("engine.mode must be %q or %q", ModeSimulation, ModeNetwork)
	}
	if c.Engine.Address == "" {
		return fmt.Errorf("engine.address is required")
	}
	if c.Engine.RoundDuration < 1 {
		return fmt.Errorf("engine.round_duration must be at least 1 tick")
	}
	if c.Engine.TickDuration < 10*time.Millisecond {
		return fmt.Errorf("engine.tick_duration must be at least 10ms")
	}
	if c.Engine.HouseFee < 0 || c.Engine.HouseFee >= 1 {
		return fmt.Errorf("engine.house_fee must be in [0, 1)")
	}
	if c.Engine.MinBet <= 0 {
		return fmt.Errorf("engine.min_bet must be positive")
	}
	if c.Engine.MaxBet < c.Engine.MinBet {
		return fmt.Errorf("engine.max_bet must be at least engine.min_bet")
	}
	if c.Engine.InitialBalance < 0 {
		return fmt.Errorf("engine.initial_balance must not be negative")
	}
	if c.Engine.HistoryLimit < 1 {
		return fmt.Errorf("engine.history_limit must be at least 1")
	}

	if c.Engine.Mode == ModeNetwork {
		if c.Ledger.RPCURL == "" {
			return fmt.Errorf("ledger.rpc_url is required in network mode")
		}
		if c.Ledger.Timeout < time.Second {
			return fmt.Errorf("ledger.timeout must be at least 1 second")
		}
	}

	for name, d := range map[string]time.Duration{
		"poll.tick":    c.Poll.Tick,
		"poll.price":   c.Poll.Price,
		"poll.rounds":  c.Poll.Rounds,
		"poll.balance": c.Poll.Balance,
	} {
		if d < 100*time.Millisecond {
			return fmt.Errorf("%s must be at least 100ms", name)
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
