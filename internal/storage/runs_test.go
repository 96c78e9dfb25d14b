package storage

import (
	"context"
	"testing"
	"time"

	"github.com/leasewatch/leasewatch/internal/model"
)

func TestRecordRun_Lifecycle(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := &model.MonitoringRunSummary{RunID: "run-1"}
	if err := store.RecordRunStart(ctx, run); err != nil {
		t.Fatalf("RecordRunStart failed: %v", err)
	}
	if run.Status != model.RunInProgress {
		t.Errorf("status = %q after start, want in_progress", run.Status)
	}

	run.Status = model.RunSuccess
	run.JurisdictionsChecked = 2
	run.CandidatesAccepted = 7
	run.RelevantCandidates = 3
	run.TemplatesPublished = 1
	run.Report = "2 jurisdictions checked"
	if err := store.RecordRunCompletion(ctx, run); err != nil {
		t.Fatalf("RecordRunCompletion failed: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1 (latest row per run)", len(runs))
	}
	got := runs[0]
	if got.Status != model.RunSuccess {
		t.Errorf("status = %q, want success", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completion timestamp missing")
	}
	if got.TemplatesPublished != 1 || got.CandidatesAccepted != 7 {
		t.Errorf("counts not persisted: %+v", got)
	}
}

func TestGetRun(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := &model.MonitoringRunSummary{RunID: "run-1"}
	if err := store.RecordRunStart(ctx, run); err != nil {
		t.Fatalf("RecordRunStart failed: %v", err)
	}
	run.Status = model.RunSuccess
	if err := store.RecordRunCompletion(ctx, run); err != nil {
		t.Fatalf("RecordRunCompletion failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != model.RunSuccess {
		t.Errorf("latest row status = %q, want success", got.Status)
	}

	if _, err := store.GetRun(ctx, "run-missing"); err == nil {
		t.Error("missing run did not error")
	}
}

func TestRecordRunCompletion_RequiresTerminalStatus(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := &model.MonitoringRunSummary{RunID: "run-1"}
	if err := store.RecordRunStart(ctx, run); err != nil {
		t.Fatalf("RecordRunStart failed: %v", err)
	}

	run.Status = model.RunInProgress
	if err := store.RecordRunCompletion(ctx, run); err == nil {
		t.Error("in_progress accepted as completion status")
	}
}

func TestListDanglingRuns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	crashed := &model.MonitoringRunSummary{RunID: "run-crashed", StartedAt: time.Now().Add(-time.Hour)}
	if err := store.RecordRunStart(ctx, crashed); err != nil {
		t.Fatalf("RecordRunStart failed: %v", err)
	}

	finished := &model.MonitoringRunSummary{RunID: "run-finished"}
	if err := store.RecordRunStart(ctx, finished); err != nil {
		t.Fatalf("RecordRunStart failed: %v", err)
	}
	finished.Status = model.RunFailed
	finished.ErrorMessage = "bill source unavailable"
	if err := store.RecordRunCompletion(ctx, finished); err != nil {
		t.Fatalf("RecordRunCompletion failed: %v", err)
	}

	dangling, err := store.ListDanglingRuns(ctx)
	if err != nil {
		t.Fatalf("ListDanglingRuns failed: %v", err)
	}
	if len(dangling) != 1 {
		t.Fatalf("got %d dangling runs, want 1", len(dangling))
	}
	if dangling[0].RunID != "run-crashed" {
		t.Errorf("dangling run = %q, want run-crashed", dangling[0].RunID)
	}
}
