package engine

import (
	"context"

	"github.com/leasewatch/leasewatch/internal/model"
)

// Classifier assesses a candidate's relevance to a jurisdiction's
// templates. Implementations never fail; degraded verdicts carry the
// Degraded flag instead.
type Classifier interface {
	Classify(ctx context.Context, candidate model.ChangeCandidate, templates []model.Template) model.RelevanceVerdict
}

// Source is a feed of legal change candidates.
type Source interface {
	Kind() model.SourceKind
	Enabled() bool
	FetchCandidates(ctx context.Context, jurisdictionID string, sinceYear int) ([]model.ChangeCandidate, error)
}
