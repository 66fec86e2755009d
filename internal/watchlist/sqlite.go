package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"stockwatch/internal/market"
)

const onboardedKey = "has_onboarded"

// SQLiteStore persists the watchlist in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	events broker
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
// A database that has never been opened before is seeded with defaults.
func OpenSQLite(ctx context.Context, path string, defaults []Entry) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.onboard(ctx, defaults); err != nil {
		db.Close()
		return nil, fmt.Errorf("onboard: %w", err)
	}

	slog.Info("watchlist database opened", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS watchlist (
			symbol       TEXT PRIMARY KEY,
			company_name TEXT NOT NULL DEFAULT '',
			position     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_position ON watchlist(position)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *SQLiteStore) onboard(ctx context.Context, defaults []Entry) error {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, onboardedKey).Scan(&value)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, e := range defaults {
		sym := market.NormalizeSymbol(string(e.Symbol))
		if sym == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO watchlist (symbol, company_name, position) VALUES (?, ?, ?)`,
			sym, e.CompanyName, i,
		); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, 'true')`, onboardedKey,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Symbols(ctx context.Context) ([]market.Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM watchlist ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []market.Symbol
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, market.Symbol(sym))
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CompanyName(ctx context.Context, symbol market.Symbol) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT company_name FROM watchlist WHERE symbol = ?`, string(symbol),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query company name: %w", err)
	}
	return name, nil
}

func (s *SQLiteStore) Contains(ctx context.Context, symbol market.Symbol) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlist WHERE symbol = ?`, string(symbol),
	).Scan(&n); err != nil {
		return false, fmt.Errorf("query symbol: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Add(ctx context.Context, symbol market.Symbol, companyName string) error {
	symbol = market.NormalizeSymbol(string(symbol))
	if symbol == "" {
		return ErrEmptySymbol
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO watchlist (symbol, company_name, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM watchlist))`,
		string(symbol), companyName,
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("insert %s: %w", symbol, err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.events.publish(Event{Kind: Added, Symbol: symbol})
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, symbol market.Symbol) error {
	symbol = market.NormalizeSymbol(string(symbol))

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, string(symbol))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete %s: %w", symbol, err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.events.publish(Event{Kind: Removed, Symbol: symbol})
	}
	return nil
}

func (s *SQLiteStore) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}
