// Package postgres stores presets in Postgres through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"phylotree/pkg/preset"
)

var _ preset.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/phylotree?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store keeps one row per preset with a JSONB payload.
type Store struct {
	db *sql.DB
}

// NewStore opens the database at dsn (falls back to defaultDSN), pings it and
// ensures the presets table.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensurePresetTable(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensurePresetTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS presets (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure presets table: %w", err)
	}
	return nil
}

// Save upserts the preset document inside a transaction.
func (s *Store) Save(ctx context.Context, p preset.Preset) (retErr error) {
	p, err := p.Normalize()
	if err != nil {
		return err
	}
	payload, err := preset.Encode(p)
	if err != nil {
		return fmt.Errorf("encode preset %s: %w", p.Name, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO presets (name, payload, updated_at) VALUES ($1, $2, $3) ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		p.Name, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert preset %s: %w", p.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns preset.ErrNotFound when no row matches.
func (s *Store) Load(ctx context.Context, name string) (preset.Preset, error) {
	name, err := preset.ValidateName(name)
	if err != nil {
		return preset.Preset{}, err
	}
	var payload []byte
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM presets WHERE name = $1`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return preset.Preset{}, fmt.Errorf("%w: %s", preset.ErrNotFound, name)
	}
	if err != nil {
		return preset.Preset{}, fmt.Errorf("select preset %s: %w", name, err)
	}
	return preset.Decode(name, payload)
}

// Delete removes the row and reports whether it existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	name, err := preset.ValidateName(name)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete preset %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns preset names in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select presets: %w", err)
	}
	defer func() { _ = rows.Close() }()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
