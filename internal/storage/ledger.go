package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
)

// HasProcessed reports whether a (source kind, external id) pair has
// already been accepted into the pipeline.
func (s *SQLiteStorage) HasProcessed(ctx context.Context, kind model.SourceKind, externalID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM change_ledger WHERE source_kind = ? AND external_id = ?)
	`, string(kind), externalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}

	return exists, nil
}

// MarkProcessed records a (source kind, external id) pair as processed.
// The UNIQUE constraint makes this a set-insert: marking twice neither
// errors nor creates a second row.
func (s *SQLiteStorage) MarkProcessed(ctx context.Context, kind model.SourceKind, externalID string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO change_ledger (source_kind, external_id, processed_at)
		VALUES (?, ?, ?)
	`, string(kind), externalID, at)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerWrite, err)
	}

	return nil
}

// CountLedgerRecords returns the total number of ledger rows.
func (s *SQLiteStorage) CountLedgerRecords(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM change_ledger`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger records: %w", err)
	}

	return count, nil
}
