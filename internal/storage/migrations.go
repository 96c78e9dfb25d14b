package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 5

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS jurisdictions (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					active INTEGER NOT NULL DEFAULT 1
				)`,

				`CREATE TABLE IF NOT EXISTS templates (
					id TEXT PRIMARY KEY,
					jurisdiction_id TEXT NOT NULL,
					title TEXT NOT NULL,
					category TEXT NOT NULL,
					active INTEGER NOT NULL DEFAULT 1,
					current_version INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (jurisdiction_id) REFERENCES jurisdictions(id)
				)`,
				`CREATE INDEX idx_templates_jurisdiction ON templates(jurisdiction_id)`,

				`CREATE TABLE IF NOT EXISTS template_versions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					template_id TEXT NOT NULL,
					version INTEGER NOT NULL,
					review_entry_id INTEGER,
					notes TEXT,
					reason TEXT,
					actor TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(template_id, version),
					FOREIGN KEY (template_id) REFERENCES templates(id)
				)`,

				`CREATE TABLE IF NOT EXISTS change_ledger (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					source_kind TEXT NOT NULL,
					external_id TEXT NOT NULL,
					processed_at DATETIME NOT NULL,
					UNIQUE(source_kind, external_id)
				)`,

				`CREATE TABLE IF NOT EXISTS template_reviews (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					template_id TEXT NOT NULL,
					run_id TEXT,
					source_kind TEXT NOT NULL,
					external_id TEXT NOT NULL,
					status TEXT NOT NULL,
					priority INTEGER NOT NULL DEFAULT 0,
					reason TEXT,
					recommended_changes TEXT,
					opened_at_version INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME NOT NULL,
					completed_at DATETIME,
					published_at DATETIME,
					published_by TEXT,
					FOREIGN KEY (template_id) REFERENCES templates(id)
				)`,

				`CREATE TABLE IF NOT EXISTS monitoring_runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL,
					status TEXT NOT NULL,
					started_at DATETIME NOT NULL,
					completed_at DATETIME,
					jurisdictions_checked INTEGER NOT NULL DEFAULT 0,
					candidates_found INTEGER NOT NULL DEFAULT 0,
					relevant_candidates INTEGER NOT NULL DEFAULT 0,
					templates_published INTEGER NOT NULL DEFAULT 0,
					error_message TEXT,
					report TEXT
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add attorney notes for a future human-gated approval path",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE template_reviews ADD COLUMN attorney_notes TEXT`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Indexes for review queue and run history queries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_template_reviews_status ON template_reviews(status, priority)`,
				`CREATE INDEX IF NOT EXISTS idx_template_reviews_run ON template_reviews(run_id)`,
				`CREATE INDEX IF NOT EXISTS idx_monitoring_runs_run_id ON monitoring_runs(run_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Record classifier analysis on review entries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE template_reviews ADD COLUMN analysis TEXT`)
			return err
		},
	},
	{
		Version:     5,
		Description: "Rename run candidate counter to reflect accepted candidates",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE monitoring_runs RENAME COLUMN candidates_found TO candidates_accepted`)
			return err
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
