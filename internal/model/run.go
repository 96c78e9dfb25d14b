package model

import "time"

// RunStatus tracks a monitoring run: in_progress -> success | failed.
// Success means the run completed, not that every candidate was
// processed without any per-item error.
type RunStatus string

// Run status constants.
const (
	RunInProgress RunStatus = "in_progress"
	RunSuccess    RunStatus = "success"
	RunFailed     RunStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s RunStatus) Terminal() bool {
	return s == RunSuccess || s == RunFailed
}

// MonitoringRunSummary records one complete pass of the pipeline. An
// in_progress row is written at run start as a liveness marker and a
// fresh terminal row is written at the end; a crashed run is therefore
// visible as a dangling in_progress record.
type MonitoringRunSummary struct {
	StartedAt            time.Time
	CompletedAt          *time.Time
	RunID                string
	Status               RunStatus
	ErrorMessage         string
	Report               string
	JurisdictionsChecked int
	// CandidatesAccepted counts candidates that passed the pre-filter
	// and ledger check and went to classification, not raw fetches.
	CandidatesAccepted int
	RelevantCandidates int
	TemplatesPublished int
}
