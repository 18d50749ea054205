// Package storage provides key-value persistence for the settlement engine.
// Values are stored as JSON under logical keys; the SQLite implementation is
// the durable backend, the in-memory implementation backs tests and the
// degraded memory-only mode.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Logical keys for persisted engine state. Per-address collections use the
// key constructors below.
const (
	KeyPrice        = "price"
	KeyPriceHistory = "price_history"
	KeyRoundPrices  = "round_prices"
	KeySession      = "session"
)

// BetsKey returns the key holding one address's bet collection.
func BetsKey(address string) string {
	return "bets:" + address
}

// BalanceKey returns the key holding one address's spendable balance.
func BalanceKey(address string) string {
	return "balance:" + address
}

// Store is the persistence boundary every stateful component writes through.
// Load reports whether the key existed; a decode failure on an existing key
// is returned as an error so callers can substitute a default (self-heal).
type Store interface {
	Load(key string, v any) (bool, error)
	Save(key string, v any) error
	Delete(key string) error
	Close() error
}

// SQLite is the durable Store backed by a single-file SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at dbPath.
// An empty dbPath defaults to $TMPDIR/tickderiv/data.db.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "tickderiv", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %q: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?,?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, string(data), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Load(key string, v any) (bool, error) {
	var data string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return true, fmt.Errorf("corrupted value for %q: %w", key, err)
	}
	return true, nil
}

func (s *SQLite) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}
