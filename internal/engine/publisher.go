package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

// systemActor is recorded on versions and approvals made by the
// pipeline itself rather than a human reviewer.
const systemActor = "system"

// PublishOutcome counts per-template results for one candidate.
type PublishOutcome struct {
	Published int
	Rejected  int
}

// ReviewPublisher drives the review-and-publish state machine for
// candidates the classifier flagged.
type ReviewPublisher struct {
	storage  service.Storage
	catalog  service.CatalogStore
	notifier service.Notifier
	logger   *slog.Logger
}

// NewReviewPublisher wires the publisher's dependencies.
func NewReviewPublisher(storage service.Storage, catalog service.CatalogStore, notifier service.Notifier, logger *slog.Logger) *ReviewPublisher {
	return &ReviewPublisher{
		storage:  storage,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
	}
}

// Process opens a review entry and attempts a publish for every
// affected template, in the classifier's order. Failures on one
// template never abort the remaining templates. The templates map is
// the jurisdiction snapshot taken at the start of the run; ids the
// snapshot does not contain are skipped.
func (p *ReviewPublisher) Process(ctx context.Context, runID string, candidate model.ChangeCandidate, verdict model.RelevanceVerdict, templates map[string]model.Template) PublishOutcome {
	var outcome PublishOutcome

	for _, templateID := range verdict.AffectedTemplateIDs {
		tmpl, ok := templates[templateID]
		if !ok {
			p.logger.Warn("verdict names template outside jurisdiction snapshot",
				"template_id", templateID,
				"external_id", candidate.ExternalID)
			continue
		}

		if p.processTemplate(ctx, runID, candidate, verdict, tmpl) {
			outcome.Published++
		} else {
			outcome.Rejected++
		}
	}

	return outcome
}

// processTemplate runs one template through pending → publish →
// approved/rejected. Returns true when a version was published and the
// entry approved.
func (p *ReviewPublisher) processTemplate(ctx context.Context, runID string, candidate model.ChangeCandidate, verdict model.RelevanceVerdict, tmpl model.Template) bool {
	reason := fmt.Sprintf("%s %s: %s", candidate.SourceKind, candidate.ExternalID, candidate.Title)
	if verdict.Degraded {
		reason += " (heuristic verdict)"
	}

	entry := &model.TemplateReviewEntry{
		TemplateID:         tmpl.ID,
		RunID:              runID,
		SourceKind:         candidate.SourceKind,
		ExternalID:         candidate.ExternalID,
		Status:             model.ReviewPending,
		Priority:           verdict.Level.Priority(),
		Reason:             reason,
		Analysis:           verdict.Analysis,
		RecommendedChanges: verdict.RecommendedChanges,
		OpenedAtVersion:    tmpl.CurrentVersion,
	}

	// The pending entry must be durable before any publish attempt.
	if err := p.storage.CreateReviewEntry(ctx, entry); err != nil {
		p.logger.Error("failed to create review entry",
			"template_id", tmpl.ID,
			"external_id", candidate.ExternalID,
			"error", err)
		return false
	}

	version, err := p.catalog.CreateVersion(ctx, tmpl.ID, entry.ID, verdict.RecommendedChanges, reason, systemActor)
	if err != nil {
		p.logger.Warn("publish failed, rejecting review entry",
			"template_id", tmpl.ID,
			"review_entry_id", entry.ID,
			"error", err)
		if rejectErr := p.storage.RejectReviewEntry(ctx, entry.ID, err.Error()); rejectErr != nil {
			p.logger.Error("failed to reject review entry after publish failure",
				"review_entry_id", entry.ID,
				"error", rejectErr)
		}
		return false
	}

	if err := p.storage.ApproveReviewEntry(ctx, entry.ID, version.CreatedAt, systemActor); err != nil {
		// The version is committed but the entry is still pending. Leave
		// it for the reconcile report rather than guessing.
		p.logger.Error("version published but approval update failed; manual reconciliation required",
			"template_id", tmpl.ID,
			"version", version.Version,
			"review_entry_id", entry.ID,
			"error", err)
		return false
	}

	p.logger.Info("template version published",
		"template_id", tmpl.ID,
		"version", version.Version,
		"review_entry_id", entry.ID,
		"priority", entry.Priority)

	p.notify(ctx, tmpl.ID, version.Version, reason)
	return true
}

// notify delivers the publish event on a best effort basis.
func (p *ReviewPublisher) notify(ctx context.Context, templateID string, version int, reason string) {
	if p.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.notifier.TemplatePublished(notifyCtx, templateID, version, reason); err != nil {
		p.logger.Warn("publish notification failed",
			"template_id", templateID,
			"version", version,
			"error", err)
	}
}
