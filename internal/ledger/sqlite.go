// Package ledger implements the persistent seen-ticker ledger: a
// symbol-to-timestamp store pruned to a 30-day window on every load, used
// to keep auto-discovery from re-surfacing recently-processed symbols.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/lmoreno/microhunt/internal/common"
)

// DefaultTTL is the window after which a ledger entry is no longer
// considered recently seen.
const DefaultTTL = 30 * 24 * time.Hour

// SQLiteStore implements service.SeenStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
}

// NewSQLiteStore opens (or creates) the ledger at dbPath. Use ":memory:"
// for an ephemeral store in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: dbPath must not be empty", common.ErrLedgerIO)
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("%w: creating ledger directory: %v", common.ErrLedgerIO, err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: opening ledger database: %v", common.ErrLedgerIO, err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: pinging ledger database: %v", common.ErrLedgerIO, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS seen_tickers (
		symbol  TEXT PRIMARY KEY,
		seen_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: creating seen_tickers table: %v", common.ErrLedgerIO, err)
	}

	return &SQLiteStore{
		db:  db,
		ttl: DefaultTTL,
		now: time.Now,
	}, nil
}

// Load returns every entry younger than the TTL, deleting older entries in
// the same critical section so the pruned set is what gets persisted. A
// read failure is logged and yields an empty map: the ledger must never
// block discovery.
func (s *SQLiteStore) Load(ctx context.Context) map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl).Unix()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM seen_tickers WHERE seen_at < ?", cutoff); err != nil {
		slog.Warn("Failed to prune seen-ticker ledger", "error", err)
		return map[string]time.Time{}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT symbol, seen_at FROM seen_tickers")
	if err != nil {
		slog.Warn("Failed to read seen-ticker ledger", "error", err)
		return map[string]time.Time{}
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]time.Time)
	for rows.Next() {
		var symbol string
		var ts int64
		if err := rows.Scan(&symbol, &ts); err != nil {
			slog.Warn("Skipping corrupt ledger row", "error", err)
			continue
		}
		seen[symbol] = time.Unix(ts, 0)
	}
	if err := rows.Err(); err != nil {
		slog.Warn("Failed to iterate seen-ticker ledger", "error", err)
		return map[string]time.Time{}
	}

	return seen
}

// MarkSeen sets or refreshes the symbol's timestamp to now.
func (s *SQLiteStore) MarkSeen(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_tickers (symbol, seen_at) VALUES (?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET seen_at = excluded.seen_at`,
		symbol, s.now().Unix())
	if err != nil {
		return fmt.Errorf("%w: marking %s seen: %v", common.ErrLedgerIO, symbol, err)
	}
	return nil
}

// Forget removes a symbol from the ledger, making it immediately eligible
// for rediscovery.
func (s *SQLiteStore) Forget(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM seen_tickers WHERE symbol = ?", symbol); err != nil {
		return fmt.Errorf("%w: forgetting %s: %v", common.ErrLedgerIO, symbol, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
