package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/smartflow"
)

// LoadFlows reads the saved-flow list.
// Returns nil, nil if nothing has been saved yet.
func (s *PGStore) LoadFlows(ctx context.Context) ([]smartflow.SavedFlow, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM smartflow_kv WHERE key = $1`, smartflow.StorageKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("smartflow: load flows: %w", err)
	}
	return smartflow.DecodeSavedFlows(raw)
}

// SaveFlows replaces the saved-flow list.
func (s *PGStore) SaveFlows(ctx context.Context, flows []smartflow.SavedFlow) error {
	raw, err := smartflow.EncodeSavedFlows(flows)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO smartflow_kv (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		smartflow.StorageKey, raw,
	)
	if err != nil {
		return fmt.Errorf("smartflow: save flows: %w", err)
	}
	return nil
}
