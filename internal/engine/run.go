// Package engine orchestrates monitoring runs: fetching legal change
// candidates, classifying them, and publishing template updates.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
	"github.com/leasewatch/leasewatch/internal/source"
)

// RunConfig holds orchestrator tuning knobs.
type RunConfig struct {
	// MaxPerSource caps how many candidates one source may feed into
	// classification per jurisdiction per run. Deferred candidates stay
	// unmarked and surface again next run.
	MaxPerSource int
	// SinceYear bounds how far back the sources search.
	SinceYear int
}

// DefaultRunConfig returns the default orchestrator configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxPerSource: 25,
		SinceYear:    time.Now().Year() - 1,
	}
}

// MonitoringRun executes one complete monitoring pass over all active
// jurisdictions.
type MonitoringRun struct {
	storage    service.Storage
	catalog    service.CatalogStore
	classifier Classifier
	publisher  *ReviewPublisher
	logger     *slog.Logger

	// OnJurisdiction, when set, is called before each jurisdiction is
	// processed. The CLI uses it to drive a progress bar.
	OnJurisdiction func(jurisdiction model.Jurisdiction, index, total int)

	sources      []Source
	maxPerSource int
	sinceYear    int
}

// NewMonitoringRun wires an orchestrator from its dependencies.
func NewMonitoringRun(storage service.Storage, catalog service.CatalogStore, classifier Classifier, publisher *ReviewPublisher, sources []Source, cfg RunConfig, logger *slog.Logger) *MonitoringRun {
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = DefaultRunConfig().MaxPerSource
	}
	if cfg.SinceYear <= 0 {
		cfg.SinceYear = DefaultRunConfig().SinceYear
	}

	return &MonitoringRun{
		storage:      storage,
		catalog:      catalog,
		classifier:   classifier,
		publisher:    publisher,
		sources:      sources,
		maxPerSource: cfg.MaxPerSource,
		sinceYear:    cfg.SinceYear,
		logger:       logger,
	}
}

// Execute runs the pipeline once. It always attempts to leave a
// terminal run summary behind; the one exception is context
// cancellation, which leaves the in_progress marker dangling for the
// reconcile report to find.
func (m *MonitoringRun) Execute(ctx context.Context) (*model.MonitoringRunSummary, error) {
	summary := &model.MonitoringRunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	if err := m.storage.RecordRunStart(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	m.logger.Info("monitoring run started", "run_id", summary.RunID)

	jurisdictions, err := m.storage.ListActiveJurisdictions(ctx)
	if err != nil {
		return m.fail(ctx, summary, fmt.Errorf("failed to list jurisdictions: %w", err))
	}
	if len(jurisdictions) == 0 {
		return m.fail(ctx, summary, fmt.Errorf("no active jurisdictions configured"))
	}

	for i, jurisdiction := range jurisdictions {
		if ctx.Err() != nil {
			m.logger.Warn("monitoring run canceled",
				"run_id", summary.RunID,
				"jurisdictions_completed", summary.JurisdictionsChecked)
			return summary, ctx.Err()
		}

		if m.OnJurisdiction != nil {
			m.OnJurisdiction(jurisdiction, i, len(jurisdictions))
		}

		m.processJurisdiction(ctx, summary, jurisdiction)
		summary.JurisdictionsChecked++
	}

	summary.Status = model.RunSuccess
	summary.Report = buildReport(summary)

	if err := m.storage.RecordRunCompletion(ctx, summary); err != nil {
		return summary, fmt.Errorf("failed to record run completion: %w", err)
	}

	m.logger.Info("monitoring run complete",
		"run_id", summary.RunID,
		"jurisdictions", summary.JurisdictionsChecked,
		"candidates_accepted", summary.CandidatesAccepted,
		"relevant", summary.RelevantCandidates,
		"published", summary.TemplatesPublished)

	return summary, nil
}

// processJurisdiction runs the bill phase and the case-law phase for
// one jurisdiction. A failing source never blocks the other.
func (m *MonitoringRun) processJurisdiction(ctx context.Context, summary *model.MonitoringRunSummary, jurisdiction model.Jurisdiction) {
	templates, err := m.catalog.ListTemplates(ctx, jurisdiction.ID)
	if err != nil {
		m.logger.Error("failed to load template snapshot, skipping jurisdiction",
			"jurisdiction", jurisdiction.ID,
			"error", err)
		return
	}
	if len(templates) == 0 {
		m.logger.Debug("jurisdiction has no active templates",
			"jurisdiction", jurisdiction.ID)
		return
	}

	snapshot := make(map[string]model.Template, len(templates))
	for _, t := range templates {
		snapshot[t.ID] = t
	}

	for _, src := range m.sources {
		if !src.Enabled() {
			m.logger.Debug("source disabled",
				"source_kind", src.Kind(),
				"jurisdiction", jurisdiction.ID)
			continue
		}

		var candidates []model.ChangeCandidate
		err := common.WithRetry(ctx, func() error {
			fetched, fetchErr := src.FetchCandidates(ctx, jurisdiction.ID, m.sinceYear)
			if fetchErr != nil {
				return &common.RetryableError{Err: fetchErr, Retryable: common.IsRetryable(fetchErr)}
			}
			candidates = fetched
			return nil
		}, service.RetryOptions{})
		if err != nil {
			m.logger.Error("source fetch failed",
				"source_kind", src.Kind(),
				"jurisdiction", jurisdiction.ID,
				"error", err)
			continue
		}

		m.processCandidates(ctx, summary, candidates, templates, snapshot)
	}
}

// processCandidates screens, deduplicates, classifies, and publishes a
// source's candidates, up to the per-source cap.
func (m *MonitoringRun) processCandidates(ctx context.Context, summary *model.MonitoringRunSummary, candidates []model.ChangeCandidate, templates []model.Template, snapshot map[string]model.Template) {
	accepted := 0

	for i, candidate := range candidates {
		if accepted >= m.maxPerSource {
			m.logger.Info("per-source candidate cap reached, deferring remainder",
				"deferred", len(candidates)-i,
				"jurisdiction", candidate.JurisdictionID,
				"source_kind", candidate.SourceKind)
			return
		}

		if err := candidate.Validate(); err != nil {
			m.logger.Warn("skipping malformed candidate", "error", err)
			continue
		}

		if !source.IsRelevantCandidate(candidate) {
			continue
		}

		processed, err := m.storage.HasProcessed(ctx, candidate.SourceKind, candidate.ExternalID)
		if err != nil {
			m.logger.Error("ledger check failed, skipping candidate",
				"external_id", candidate.ExternalID,
				"error", err)
			continue
		}
		if processed {
			continue
		}

		// Mark before classification. A crash after this point means the
		// candidate is never reprocessed, which is the safe direction:
		// duplicate review entries are worse than a missed re-check.
		if err := m.storage.MarkProcessed(ctx, candidate.SourceKind, candidate.ExternalID, time.Now()); err != nil {
			m.logger.Error("ledger mark failed, skipping candidate",
				"external_id", candidate.ExternalID,
				"error", err)
			continue
		}

		accepted++
		summary.CandidatesAccepted++

		verdict := m.classifier.Classify(ctx, candidate, templates)
		if !verdict.RequiresReview() {
			m.logger.Debug("candidate below review threshold",
				"external_id", candidate.ExternalID,
				"relevance", verdict.Level,
				"degraded", verdict.Degraded)
			continue
		}

		summary.RelevantCandidates++
		outcome := m.publisher.Process(ctx, summary.RunID, candidate, verdict, snapshot)
		summary.TemplatesPublished += outcome.Published
	}
}

// fail writes a terminal failed summary. Used only for failures that
// occur before any jurisdiction is processed.
func (m *MonitoringRun) fail(ctx context.Context, summary *model.MonitoringRunSummary, cause error) (*model.MonitoringRunSummary, error) {
	summary.Status = model.RunFailed
	summary.ErrorMessage = cause.Error()
	summary.Report = buildReport(summary)

	if err := m.storage.RecordRunCompletion(ctx, summary); err != nil {
		m.logger.Error("failed to record failed run", "run_id", summary.RunID, "error", err)
	}

	return summary, cause
}

func buildReport(summary *model.MonitoringRunSummary) string {
	report := fmt.Sprintf("Checked %d jurisdictions: %d candidates accepted, %d relevant, %d template versions published.",
		summary.JurisdictionsChecked,
		summary.CandidatesAccepted,
		summary.RelevantCandidates,
		summary.TemplatesPublished)
	if summary.ErrorMessage != "" {
		report += " Failed: " + summary.ErrorMessage
	}
	return report
}
