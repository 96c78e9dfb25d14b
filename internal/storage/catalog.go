package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
)

// SeedTemplates upserts the configured template catalog. New versions
// are only ever created through CreateVersion, so seeding never touches
// the version counter of an existing template.
func (s *SQLiteStorage) SeedTemplates(ctx context.Context, templates []model.Template) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range templates {
		if t.ID == "" {
			return fmt.Errorf("%w: template id is empty", ErrInvalidInput)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO templates (id, jurisdiction_id, title, category, active, current_version)
			VALUES (?, ?, ?, ?, ?, 0)
			ON CONFLICT(id) DO UPDATE SET
				jurisdiction_id = excluded.jurisdiction_id,
				title = excluded.title,
				category = excluded.category,
				active = excluded.active
		`, t.ID, t.JurisdictionID, t.Title, t.Category, t.Active)
		if err != nil {
			return fmt.Errorf("failed to seed template %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// ListTemplates returns the active templates for a jurisdiction, or for
// all jurisdictions when jurisdictionID is empty.
func (s *SQLiteStorage) ListTemplates(ctx context.Context, jurisdictionID string) ([]model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, jurisdiction_id, title, category, active, current_version
		FROM templates WHERE active = 1`
	args := []any{}
	if jurisdictionID != "" {
		query += ` AND jurisdiction_id = ?`
		args = append(args, jurisdictionID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []model.Template
	for rows.Next() {
		var t model.Template
		err := rows.Scan(&t.ID, &t.JurisdictionID, &t.Title, &t.Category, &t.Active, &t.CurrentVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// GetTemplate retrieves a single template by id.
func (s *SQLiteStorage) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var t model.Template
	err := s.db.QueryRowContext(ctx, `
		SELECT id, jurisdiction_id, title, category, active, current_version
		FROM templates WHERE id = ?
	`, id).Scan(&t.ID, &t.JurisdictionID, &t.Title, &t.Category, &t.Active, &t.CurrentVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: template %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}

	return &t, nil
}

// CreateVersion creates the next version for a template. The version
// read, the version insert, and the counter update happen in one
// transaction; the UNIQUE(template_id, version) constraint converts a
// concurrent writer race into ErrPublishConflict.
func (s *SQLiteStorage) CreateVersion(ctx context.Context, templateID string, reviewEntryID int64, notes, reason, actor string) (*model.TemplateVersion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(templateID, "templateID"); err != nil {
		return nil, err
	}
	if err := validateString(actor, "actor"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var currentVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT current_version FROM templates WHERE id = ?`, templateID,
	).Scan(&currentVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: template %s", common.ErrNotFound, templateID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templateID, err)
	}

	version := &model.TemplateVersion{
		TemplateID:    templateID,
		Version:       currentVersion + 1,
		ReviewEntryID: reviewEntryID,
		Notes:         notes,
		Reason:        reason,
		Actor:         actor,
		CreatedAt:     time.Now(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO template_versions (template_id, version, review_entry_id, notes, reason, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		version.TemplateID,
		version.Version,
		version.ReviewEntryID,
		version.Notes,
		version.Reason,
		version.Actor,
		version.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: template %s version %d", common.ErrPublishConflict, templateID, version.Version)
		}
		return nil, fmt.Errorf("failed to insert version for %s: %w", templateID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE templates SET current_version = ? WHERE id = ?`, version.Version, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to advance version counter for %s: %w", templateID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit version for %s: %w", templateID, err)
	}

	return version, nil
}

// ListVersions returns all versions of a template, newest first.
func (s *SQLiteStorage) ListVersions(ctx context.Context, templateID string) ([]model.TemplateVersion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(templateID, "templateID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT template_id, version, review_entry_id, notes, reason, actor, created_at
		FROM template_versions
		WHERE template_id = ?
		ORDER BY version DESC
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions for %s: %w", templateID, err)
	}
	defer func() { _ = rows.Close() }()

	var versions []model.TemplateVersion
	for rows.Next() {
		var v model.TemplateVersion
		var reviewEntryID sql.NullInt64
		var notes, reason sql.NullString

		err := rows.Scan(&v.TemplateID, &v.Version, &reviewEntryID, &notes, &reason, &v.Actor, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}

		v.ReviewEntryID = reviewEntryID.Int64
		v.Notes = notes.String
		v.Reason = reason.String
		versions = append(versions, v)
	}

	return versions, rows.Err()
}
