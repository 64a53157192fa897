// Package sqlite implements smartflow.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meikuraledutech/smartflow"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS smartflow_kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '[]',
    updated_at INTEGER NOT NULL
);
`

// Store implements smartflow.Store using SQLite via database/sql.
type Store struct {
	db *sql.DB
}

// New creates a Store on an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the database file at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("smartflow: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and shared.
	db.SetMaxOpenConns(1)
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the smartflow_kv table if it doesn't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropSchema drops the smartflow_kv table.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS smartflow_kv`)
	return err
}

// LoadFlows reads the saved-flow list.
// Returns nil, nil if nothing has been saved yet.
func (s *Store) LoadFlows(ctx context.Context) ([]smartflow.SavedFlow, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM smartflow_kv WHERE key = ?`, smartflow.StorageKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("smartflow: load flows: %w", err)
	}
	return smartflow.DecodeSavedFlows([]byte(raw))
}

// SaveFlows replaces the saved-flow list.
func (s *Store) SaveFlows(ctx context.Context, flows []smartflow.SavedFlow) error {
	raw, err := smartflow.EncodeSavedFlows(flows)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO smartflow_kv (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		smartflow.StorageKey, string(raw),
	)
	if err != nil {
		return fmt.Errorf("smartflow: save flows: %w", err)
	}
	return nil
}
