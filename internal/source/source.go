// Package source implements the legal change feeds the pipeline
// monitors: legislative bill search and published court opinions.
package source

import (
	"context"
	"strings"

	"github.com/leasewatch/leasewatch/internal/model"
)

// Source is a feed of legal change candidates for one source kind.
type Source interface {
	Kind() model.SourceKind
	// Enabled reports whether the source is configured. Disabled sources
	// are skipped without error.
	Enabled() bool
	// FetchCandidates returns candidates for a jurisdiction changed in or
	// after the given year.
	FetchCandidates(ctx context.Context, jurisdictionID string, sinceYear int) ([]model.ChangeCandidate, error)
}

// prefilterTerms is the cheap keyword screen applied before any
// candidate touches the ledger or the classifier.
var prefilterTerms = []string{
	"tenancy",
	"tenant",
	"landlord",
	"eviction",
	"deposit",
	"lease",
	"notice",
	"habitability",
	"rent",
}

// IsRelevantCandidate reports whether a candidate's title or summary
// mentions landlord-tenant subject matter at all. Bodies are excluded
// on purpose; long statutes mention "notice" constantly.
func IsRelevantCandidate(candidate model.ChangeCandidate) bool {
	text := strings.ToLower(candidate.Title + " " + candidate.Description)
	for _, term := range prefilterTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
