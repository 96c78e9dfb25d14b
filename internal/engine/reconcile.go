package engine

import (
	"context"
	"fmt"

	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

// ReconciliationReport lists the inconsistencies an operator must look
// at: reviews stuck pending after a successful publish, and runs that
// never wrote a terminal summary.
type ReconciliationReport struct {
	StuckReviews []model.TemplateReviewEntry
	DanglingRuns []model.MonitoringRunSummary
}

// Clean reports whether there is nothing to reconcile.
func (r *ReconciliationReport) Clean() bool {
	return len(r.StuckReviews) == 0 && len(r.DanglingRuns) == 0
}

// BuildReconciliationReport collects the current inconsistency state.
func BuildReconciliationReport(ctx context.Context, storage service.Storage) (*ReconciliationReport, error) {
	stuck, err := storage.ListStuckReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck reviews: %w", err)
	}

	dangling, err := storage.ListDanglingRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dangling runs: %w", err)
	}

	return &ReconciliationReport{
		StuckReviews: stuck,
		DanglingRuns: dangling,
	}, nil
}
