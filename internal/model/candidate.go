// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"
)

// SourceKind identifies which external feed a change came from.
type SourceKind string

// Source kind constants.
const (
	SourceBill SourceKind = "bill"
	SourceCase SourceKind = "case"
)

// Valid reports whether the source kind is one of the known feeds.
func (k SourceKind) Valid() bool {
	return k == SourceBill || k == SourceCase
}

// ChangeCandidate is a normalized representation of one external legal
// change (a legislative bill or a court opinion) awaiting relevance
// classification. Candidates are created fresh on each fetch and never
// mutated; only their derived records are persisted.
type ChangeCandidate struct {
	DiscoveredAt   time.Time
	SourceKind     SourceKind
	ExternalID     string
	JurisdictionID string
	Title          string
	Description    string
	Body           string // optional full text or opinion body; may be empty
}

// Validate checks the fields required before a candidate may enter the
// pipeline.
func (c *ChangeCandidate) Validate() error {
	if !c.SourceKind.Valid() {
		return fmt.Errorf("invalid source kind: %q", c.SourceKind)
	}
	if c.ExternalID == "" {
		return fmt.Errorf("external id is required")
	}
	if c.JurisdictionID == "" {
		return fmt.Errorf("jurisdiction id is required")
	}
	return nil
}

// LedgerRecord marks one (source kind, external id) pair as processed.
// Presence of a record is the sole at-most-once guarantee for the pipeline.
type LedgerRecord struct {
	ProcessedAt time.Time
	SourceKind  SourceKind
	ExternalID  string
	ID          int64
}
