// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/leasewatch/leasewatch/internal/model"
)

// ReviewFilter defines filtering options for review queue queries.
type ReviewFilter struct {
	Status         model.ReviewStatus
	JurisdictionID string
	MinPriority    int
	Limit          int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Dedup ledger operations. MarkProcessed is a set-insert: calling it
	// twice for the same (source kind, external id) must not error and
	// must not create two ledger rows.
	HasProcessed(ctx context.Context, kind model.SourceKind, externalID string) (bool, error)
	MarkProcessed(ctx context.Context, kind model.SourceKind, externalID string, at time.Time) error
	CountLedgerRecords(ctx context.Context) (int, error)

	// Review entry operations. Entries are never deleted.
	CreateReviewEntry(ctx context.Context, entry *model.TemplateReviewEntry) error
	ApproveReviewEntry(ctx context.Context, id int64, publishedAt time.Time, actor string) error
	RejectReviewEntry(ctx context.Context, id int64, reason string) error
	GetReviewEntry(ctx context.Context, id int64) (*model.TemplateReviewEntry, error)
	ListReviewEntries(ctx context.Context, filter ReviewFilter) ([]model.TemplateReviewEntry, error)
	ListStuckReviews(ctx context.Context) ([]model.TemplateReviewEntry, error)

	// Run summary operations. RecordRunCompletion writes a fresh terminal
	// row rather than mutating the in_progress liveness marker.
	RecordRunStart(ctx context.Context, run *model.MonitoringRunSummary) error
	RecordRunCompletion(ctx context.Context, run *model.MonitoringRunSummary) error
	GetRun(ctx context.Context, runID string) (*model.MonitoringRunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]model.MonitoringRunSummary, error)
	ListDanglingRuns(ctx context.Context) ([]model.MonitoringRunSummary, error)

	// Jurisdiction operations.
	SeedJurisdictions(ctx context.Context, jurisdictions []model.Jurisdiction) error
	ListActiveJurisdictions(ctx context.Context) ([]model.Jurisdiction, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// CatalogStore holds templates and their versions. The pipeline reads
// templates and requests new versions; it never edits template content.
type CatalogStore interface {
	ListTemplates(ctx context.Context, jurisdictionID string) ([]model.Template, error)
	GetTemplate(ctx context.Context, id string) (*model.Template, error)
	// CreateVersion creates the next version for a template. Fails with
	// common.ErrNotFound if the template is missing and
	// common.ErrPublishConflict if a concurrent version write raced.
	CreateVersion(ctx context.Context, templateID string, reviewEntryID int64, notes, reason, actor string) (*model.TemplateVersion, error)
}

// Notifier informs subscribers that a template changed. Implementations
// must tolerate being unconfigured.
type Notifier interface {
	TemplatePublished(ctx context.Context, templateID string, version int, reason string) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
