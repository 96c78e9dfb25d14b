package model

import (
	"fmt"
	"time"
)

// ReviewStatus tracks a review entry through its state machine:
// pending -> approved | rejected. Both approved and rejected are terminal.
type ReviewStatus string

// Review status constants.
const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether the status is a known state.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is an end state.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// TemplateReviewEntry is the audit record tracking one template's
// response to one candidate, from creation through approval or
// rejection. Entries are created in pending status before any publish
// attempt and are never deleted; the full history is the audit log.
type TemplateReviewEntry struct {
	StartedAt          time.Time
	CompletedAt        *time.Time
	PublishedAt        *time.Time
	TemplateID         string
	RunID              string
	SourceKind         SourceKind
	ExternalID         string
	Status             ReviewStatus
	Reason             string
	Analysis           string
	RecommendedChanges string
	AttorneyNotes      string // reserved for a human-gated approval path
	PublishedBy        string
	OpenedAtVersion    int
	Priority           int
	ID                 int64
}

// Validate checks the fields required before an entry may be persisted.
func (e *TemplateReviewEntry) Validate() error {
	if e.TemplateID == "" {
		return fmt.Errorf("template id is required")
	}
	if !e.SourceKind.Valid() {
		return fmt.Errorf("invalid source kind: %q", e.SourceKind)
	}
	if e.ExternalID == "" {
		return fmt.Errorf("external id is required")
	}
	switch e.Status {
	case ReviewPending, ReviewApproved, ReviewRejected:
	default:
		return fmt.Errorf("invalid review status: %q", e.Status)
	}
	if e.Priority < 0 {
		return fmt.Errorf("priority must be non-negative")
	}
	return nil
}
