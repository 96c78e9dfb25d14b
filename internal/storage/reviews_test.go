package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

func newPendingEntry(templateID, runID string, priority int) *model.TemplateReviewEntry {
	return &model.TemplateReviewEntry{
		TemplateID:         templateID,
		RunID:              runID,
		SourceKind:         model.SourceBill,
		ExternalID:         "HB 204",
		Status:             model.ReviewPending,
		Priority:           priority,
		Reason:             "security deposit deadline change",
		Analysis:           "The bill extends the deposit return window for residential leases.",
		RecommendedChanges: "Update clause 7 return window",
		OpenedAtVersion:    0,
	}
}

func TestCreateReviewEntry_FillsID(t *testing.T) {
	store := createTestStorage(t)
	seedTestCatalog(t, store)
	ctx := context.Background()

	entry := newPendingEntry("ut-lease-v3", "run-1", 10)
	if err := store.CreateReviewEntry(ctx, entry); err != nil {
		t.Fatalf("CreateReviewEntry failed: %v", err)
	}
	if entry.ID == 0 {
		t.Error("entry ID not filled in")
	}
	if entry.StartedAt.IsZero() {
		t.Error("StartedAt not defaulted")
	}

	got, err := store.GetReviewEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetReviewEntry failed: %v", err)
	}
	if got.Status != model.ReviewPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.Priority != 10 {
		t.Errorf("priority = %d, want 10", got.Priority)
	}
	if got.Analysis != entry.Analysis {
		t.Errorf("analysis = %q, want %q", got.Analysis, entry.Analysis)
	}
	if got.RecommendedChanges != entry.RecommendedChanges {
		t.Errorf("recommended changes = %q, want %q", got.RecommendedChanges, entry.RecommendedChanges)
	}
}

func TestCreateReviewEntry_RejectsNonPending(t *testing.T) {
	store := createTestStorage(t)
	seedTestCatalog(t, store)

	entry := newPendingEntry("ut-lease-v3", "run-1", 10)
	entry.Status = model.ReviewApproved
	err := store.CreateReviewEntry(context.Background(), entry)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestApproveReviewEntry(t *testing.T) {
	store := createTestStorage(t)
	seedTestCatalog(t, store)
	ctx := context.Background()

	entry := newPendingEntry("ut-lease-v3", "run-1", 10)
	if err := store.CreateReviewEntry(ctx, entry); err != nil {
		t.Fatalf("CreateReviewEntry failed: %v", err)
	}

	publishedAt := time.Now()
	if err := store.ApproveReviewEntry(ctx, entry.ID, publishedAt, "system"); err != nil {
		t.Fatalf("ApproveReviewEntry failed: %v", err)
	}

	got, err := store.GetReviewEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetReviewEntry failed: %v", err)
	}
	if got.Status != model.ReviewApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if got.CompletedAt == nil || got.PublishedAt == nil {
		t.Error("completion or publish timestamp missing")
	}
	if got.PublishedBy != "system" {
		t.Errorf("published_by = %q, want system", got.PublishedBy)
	}

	// A terminal entry cannot be approved again.
	err = store.ApproveReviewEntry(ctx, entry.ID, time.Now(), "system")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second approval: got %v, want ErrNotFound", err)
	}
}

func TestRejectReviewEntry(t *testing.T) {
	store := createTestStorage(t)
	seedTestCatalog(t, store)
	ctx := context.Background()

	entry := newPendingEntry("ut-eviction-notice", "run-1", 5)
	if err := store.CreateReviewEntry(ctx, entry); err != nil {
		t.Fatalf("CreateReviewEntry failed: %v", err)
	}

	if err := store.RejectReviewEntry(ctx, entry.ID, "version conflict"); err != nil {
		t.Fatalf("RejectReviewEntry failed: %v", err)
	}

	got, err := store.GetReviewEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetReviewEntry failed: %v", err)
	}
	if got.Status != model.ReviewRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
	if !strings.Contains(got.Reason, "rejected: version conflict") {
		t.Errorf("reason %q missing rejection detail", got.Reason)
	}
	if got.CompletedAt == nil {
		t.Error("completion timestamp missing")
	}
}

func TestListReviewEntries_Filters(t *testing.T) {
	store := createTestStorage(t)
	seedTestCatalog(t, store)
	ctx := context.Background()

	entries := []*model.TemplateReviewEntry{
		newPendingEntry("ut-lease-v3", "run-1", 10),
		newPendingEntry("ut-eviction-notice", "run-1", 5),
		newPendingEntry("nv-lease", "run-2", 10),
	}
	for _, e := range entries {
		if err := store.CreateReviewEntry(ctx, e); err != nil {
			t.Fatalf("CreateReviewEntry failed: %v", err)
		}
	}
	if err := store.RejectReviewEntry(ctx, entries[1].ID, "not applicable"); err != nil {
		t.Fatalf("RejectReviewEntry failed: %v", err)
	}

	pending, err := store.ListReviewEntries(ctx, service.ReviewFilter{Status: model.ReviewPending})
	if err != nil {
		t.Fatalf("ListReviewEntries failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending entries, want 2", len(pending))
	}

	utOnly, err := store.ListReviewEntries(ctx, service.ReviewFilter{JurisdictionID: "UT"})
	if err != nil {
		t.Fatalf("ListReviewEntries UT failed: %v", err)
	}
	if len(utOnly) != 2 {
		t.Fatalf("got %d UT entries, want 2", len(utOnly))
	}
	for _, e := range utOnly {
		if e.TemplateID == "nv-lease" {
			t.Error("NV entry leaked into UT filter")
		}
	}

	urgent, err := store.ListReviewEntries(ctx, service.ReviewFilter{MinPriority: 10})
	if err != nil {
		t.Fatalf("ListReviewEntries priority failed: %v", err)
	}
	if len(urgent) != 2 {
		t.Fatalf("got %d high priority entries, want 2", len(urgent))
	}

	limited, err := store.ListReviewEntries(ctx, service.ReviewFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListReviewEntries limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("got %d entries with limit 1, want 1", len(limited))
	}
	if limited[0].Priority != 10 {
		t.Errorf("highest priority entry not ordered first: %+v", limited[0])
	}
}

func TestListStuckReviews(t *testing.T) {
	store := createTestStorage(t)
	seedTestCatalog(t, store)
	ctx := context.Background()

	healthy := newPendingEntry("ut-eviction-notice", "run-1", 5)
	if err := store.CreateReviewEntry(ctx, healthy); err != nil {
		t.Fatalf("CreateReviewEntry failed: %v", err)
	}

	stuck := newPendingEntry("ut-lease-v3", "run-1", 10)
	if err := store.CreateReviewEntry(ctx, stuck); err != nil {
		t.Fatalf("CreateReviewEntry failed: %v", err)
	}

	// Publish against the entry but leave it pending, as happens when
	// the approval update fails after the version commit.
	if _, err := store.CreateVersion(ctx, "ut-lease-v3", stuck.ID, "", "HB 204", "system"); err != nil {
		t.Fatalf("CreateVersion failed: %v", err)
	}

	got, err := store.ListStuckReviews(ctx)
	if err != nil {
		t.Fatalf("ListStuckReviews failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d stuck reviews, want 1", len(got))
	}
	if got[0].ID != stuck.ID {
		t.Errorf("stuck review id = %d, want %d", got[0].ID, stuck.ID)
	}

	// Completing the approval clears the inconsistency.
	if err := store.ApproveReviewEntry(ctx, stuck.ID, time.Now(), "system"); err != nil {
		t.Fatalf("ApproveReviewEntry failed: %v", err)
	}
	got, err = store.ListStuckReviews(ctx)
	if err != nil {
		t.Fatalf("ListStuckReviews failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d stuck reviews after approval, want 0", len(got))
	}
}
