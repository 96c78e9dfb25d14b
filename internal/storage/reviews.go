package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

const reviewColumns = `id, template_id, run_id, source_kind, external_id, status, priority,
	reason, analysis, recommended_changes, attorney_notes, opened_at_version,
	started_at, completed_at, published_at, published_by`

// CreateReviewEntry durably persists a new review entry. The entry must
// be in pending status; its ID is filled in on success.
func (s *SQLiteStorage) CreateReviewEntry(ctx context.Context, entry *model.TemplateReviewEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidInput)
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if entry.Status != model.ReviewPending {
		return fmt.Errorf("%w: new entries must be pending, got %q", ErrInvalidInput, entry.Status)
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO template_reviews (
			template_id, run_id, source_kind, external_id, status, priority,
			reason, analysis, recommended_changes, attorney_notes, opened_at_version, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.TemplateID,
		entry.RunID,
		string(entry.SourceKind),
		entry.ExternalID,
		string(entry.Status),
		entry.Priority,
		entry.Reason,
		entry.Analysis,
		entry.RecommendedChanges,
		entry.AttorneyNotes,
		entry.OpenedAtVersion,
		entry.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read review entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// ApproveReviewEntry transitions a pending entry to approved, stamping
// completion, approval, and publish timestamps.
func (s *SQLiteStorage) ApproveReviewEntry(ctx context.Context, id int64, publishedAt time.Time, actor string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(actor, "actor"); err != nil {
		return err
	}
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE template_reviews
		SET status = ?, completed_at = ?, published_at = ?, published_by = ?
		WHERE id = ? AND status = ?
	`, string(model.ReviewApproved), time.Now(), publishedAt, actor, id, string(model.ReviewPending))
	if err != nil {
		return fmt.Errorf("failed to approve review entry %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check approval of review entry %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: pending review entry %d", common.ErrNotFound, id)
	}

	return nil
}

// RejectReviewEntry transitions a pending entry to rejected, recording
// the failure reason.
func (s *SQLiteStorage) RejectReviewEntry(ctx context.Context, id int64, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE template_reviews
		SET status = ?, completed_at = ?, reason = reason || ?
		WHERE id = ? AND status = ?
	`, string(model.ReviewRejected), time.Now(), "; rejected: "+reason, id, string(model.ReviewPending))
	if err != nil {
		return fmt.Errorf("failed to reject review entry %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rejection of review entry %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: pending review entry %d", common.ErrNotFound, id)
	}

	return nil
}

// GetReviewEntry retrieves a single review entry by id.
func (s *SQLiteStorage) GetReviewEntry(ctx context.Context, id int64) (*model.TemplateReviewEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM template_reviews WHERE id = ?`, id)

	entry, err := scanReviewEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: review entry %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListReviewEntries returns review entries matching the filter, highest
// priority first. This backs the operator review queue.
func (s *SQLiteStorage) ListReviewEntries(ctx context.Context, filter service.ReviewFilter) ([]model.TemplateReviewEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	builder := sq.Select(
		"r.id", "r.template_id", "r.run_id", "r.source_kind", "r.external_id",
		"r.status", "r.priority", "r.reason", "r.analysis", "r.recommended_changes",
		"r.attorney_notes", "r.opened_at_version", "r.started_at",
		"r.completed_at", "r.published_at", "r.published_by",
	).
		From("template_reviews r").
		OrderBy("r.priority DESC", "r.started_at ASC")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"r.status": string(filter.Status)})
	}
	if filter.MinPriority > 0 {
		builder = builder.Where(sq.GtOrEq{"r.priority": filter.MinPriority})
	}
	if filter.JurisdictionID != "" {
		builder = builder.
			Join("templates t ON t.id = r.template_id").
			Where(sq.Eq{"t.jurisdiction_id": filter.JurisdictionID})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build review query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectReviewEntries(rows)
}

// ListStuckReviews returns pending entries whose template already has a
// version tagged with the review id. These are the narrow inconsistency
// window of a publish that succeeded before the approval update failed,
// and they require manual reconciliation.
func (s *SQLiteStorage) ListStuckReviews(ctx context.Context) ([]model.TemplateReviewEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.template_id, r.run_id, r.source_kind, r.external_id,
			r.status, r.priority, r.reason, r.analysis, r.recommended_changes,
			r.attorney_notes, r.opened_at_version, r.started_at,
			r.completed_at, r.published_at, r.published_by
		FROM template_reviews r
		JOIN template_versions v ON v.review_entry_id = r.id
		WHERE r.status = ?
		ORDER BY r.started_at
	`, string(model.ReviewPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectReviewEntries(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReviewEntry(row rowScanner) (*model.TemplateReviewEntry, error) {
	var e model.TemplateReviewEntry
	var statusStr, kindStr string
	var runID, reason, analysis, changes, notes, publishedBy sql.NullString
	var completedAt, publishedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.TemplateID,
		&runID,
		&kindStr,
		&e.ExternalID,
		&statusStr,
		&e.Priority,
		&reason,
		&analysis,
		&changes,
		&notes,
		&e.OpenedAtVersion,
		&e.StartedAt,
		&completedAt,
		&publishedAt,
		&publishedBy,
	)
	if err != nil {
		return nil, err
	}

	e.Status = model.ReviewStatus(statusStr)
	e.SourceKind = model.SourceKind(kindStr)
	e.RunID = runID.String
	e.Reason = reason.String
	e.Analysis = analysis.String
	e.RecommendedChanges = changes.String
	e.AttorneyNotes = notes.String
	e.PublishedBy = publishedBy.String
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		e.PublishedAt = &t
	}

	return &e, nil
}

func collectReviewEntries(rows *sql.Rows) ([]model.TemplateReviewEntry, error) {
	var entries []model.TemplateReviewEntry
	for rows.Next() {
		entry, err := scanReviewEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}
