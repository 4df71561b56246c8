// Package sqlite stores presets in a SQLite database using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"phylotree/pkg/preset"
)

var _ preset.Store = (*Store)(nil)

// Store keeps one row per preset holding the JSON document.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and ensures the presets table.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "phylotree.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS presets (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create presets table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Save upserts the preset document.
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
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO presets(name,payload,updated_at) VALUES(?,?,?) ON CONFLICT(name) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		p.Name, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert preset %s: %w", p.Name, err)
	}
	return tx.Commit()
}

// Load returns preset.ErrNotFound when no row matches.
func (s *Store) Load(ctx context.Context, name string) (preset.Preset, error) {
	name, err := preset.ValidateName(name)
	if err != nil {
		return preset.Preset{}, err
	}
	var payload []byte
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM presets WHERE name = ?`, name).Scan(&payload)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name)
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

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
