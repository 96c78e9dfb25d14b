package storage

import (
	"context"
	"fmt"

	"github.com/leasewatch/leasewatch/internal/model"
)

// SeedJurisdictions upserts the configured jurisdiction list. Seeding is
// idempotent; the pipeline treats jurisdictions as read-only afterward.
func (s *SQLiteStorage) SeedJurisdictions(ctx context.Context, jurisdictions []model.Jurisdiction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, j := range jurisdictions {
		if j.ID == "" {
			return fmt.Errorf("%w: jurisdiction id is empty", ErrInvalidInput)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO jurisdictions (id, name, active)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				active = excluded.active
		`, j.ID, j.Name, j.Active)
		if err != nil {
			return fmt.Errorf("failed to seed jurisdiction %s: %w", j.ID, err)
		}
	}

	return tx.Commit()
}

// ListActiveJurisdictions returns all jurisdictions with the active flag set.
func (s *SQLiteStorage) ListActiveJurisdictions(ctx context.Context) ([]model.Jurisdiction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, active FROM jurisdictions WHERE active = 1 ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jurisdictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jurisdictions []model.Jurisdiction
	for rows.Next() {
		var j model.Jurisdiction
		if err := rows.Scan(&j.ID, &j.Name, &j.Active); err != nil {
			return nil, fmt.Errorf("failed to scan jurisdiction: %w", err)
		}
		jurisdictions = append(jurisdictions, j)
	}

	return jurisdictions, rows.Err()
}
