package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
)

// RecordRunStart writes the in_progress liveness marker for a run.
func (s *SQLiteStorage) RecordRunStart(ctx context.Context, run *model.MonitoringRunSummary) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run is nil", ErrInvalidInput)
	}
	if err := validateString(run.RunID, "runID"); err != nil {
		return err
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = model.RunInProgress

	return s.insertRun(ctx, run)
}

// RecordRunCompletion writes a fresh terminal row for a run. The initial
// in_progress row is intentionally left untouched so a crashed run stays
// visible as a dangling liveness marker.
func (s *SQLiteStorage) RecordRunCompletion(ctx context.Context, run *model.MonitoringRunSummary) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run is nil", ErrInvalidInput)
	}
	if err := validateString(run.RunID, "runID"); err != nil {
		return err
	}
	if !run.Status.Terminal() {
		return fmt.Errorf("%w: completion status must be terminal, got %q", ErrInvalidInput, run.Status)
	}
	if run.CompletedAt == nil {
		now := time.Now()
		run.CompletedAt = &now
	}

	return s.insertRun(ctx, run)
}

func (s *SQLiteStorage) insertRun(ctx context.Context, run *model.MonitoringRunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monitoring_runs (
			run_id, status, started_at, completed_at,
			jurisdictions_checked, candidates_accepted, relevant_candidates,
			templates_published, error_message, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		string(run.Status),
		run.StartedAt,
		run.CompletedAt,
		run.JurisdictionsChecked,
		run.CandidatesAccepted,
		run.RelevantCandidates,
		run.TemplatesPublished,
		run.ErrorMessage,
		run.Report,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}

	return nil
}

// GetRun returns the most recent row for a run.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*model.MonitoringRunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, status, started_at, completed_at,
			jurisdictions_checked, candidates_accepted, relevant_candidates,
			templates_published, error_message, report
		FROM monitoring_runs
		WHERE run_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	runs, err := collectRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: run %s", common.ErrNotFound, runID)
	}

	return &runs[0], nil
}

// ListRuns returns the most recent row per run, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.MonitoringRunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, status, started_at, completed_at,
			jurisdictions_checked, candidates_accepted, relevant_candidates,
			templates_published, error_message, report
		FROM monitoring_runs
		WHERE id IN (SELECT MAX(id) FROM monitoring_runs GROUP BY run_id)
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRuns(rows)
}

// ListDanglingRuns returns runs whose latest row is still in_progress,
// meaning the run crashed or was cancelled before writing a terminal summary.
func (s *SQLiteStorage) ListDanglingRuns(ctx context.Context) ([]model.MonitoringRunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, status, started_at, completed_at,
			jurisdictions_checked, candidates_accepted, relevant_candidates,
			templates_published, error_message, report
		FROM monitoring_runs
		WHERE id IN (SELECT MAX(id) FROM monitoring_runs GROUP BY run_id)
			AND status = ?
		ORDER BY started_at
	`, string(model.RunInProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to query dangling runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRuns(rows)
}

func collectRuns(rows *sql.Rows) ([]model.MonitoringRunSummary, error) {
	var runs []model.MonitoringRunSummary
	for rows.Next() {
		var r model.MonitoringRunSummary
		var statusStr string
		var completedAt sql.NullTime
		var errMsg, report sql.NullString

		err := rows.Scan(
			&r.RunID,
			&statusStr,
			&r.StartedAt,
			&completedAt,
			&r.JurisdictionsChecked,
			&r.CandidatesAccepted,
			&r.RelevantCandidates,
			&r.TemplatesPublished,
			&errMsg,
			&report,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		r.Status = model.RunStatus(statusStr)
		r.ErrorMessage = errMsg.String
		r.Report = report.String
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}
