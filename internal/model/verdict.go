package model

// RelevanceLevel classifies how strongly a candidate affects existing
// templates. Levels form an ordered scale: dismissed < low < medium < high.
type RelevanceLevel string

// Relevance level constants.
const (
	RelevanceDismissed RelevanceLevel = "dismissed"
	RelevanceLow       RelevanceLevel = "low"
	RelevanceMedium    RelevanceLevel = "medium"
	RelevanceHigh      RelevanceLevel = "high"
)

var relevanceRanks = map[RelevanceLevel]int{
	RelevanceDismissed: 0,
	RelevanceLow:       1,
	RelevanceMedium:    2,
	RelevanceHigh:      3,
}

// Valid reports whether the level is one of the four known values.
func (l RelevanceLevel) Valid() bool {
	_, ok := relevanceRanks[l]
	return ok
}

// AtLeast reports whether l is at or above other on the relevance scale.
func (l RelevanceLevel) AtLeast(other RelevanceLevel) bool {
	return relevanceRanks[l] >= relevanceRanks[other]
}

// Priority maps a relevance level to a review priority. Only medium and
// high reach the review queue, so lower levels carry no priority.
func (l RelevanceLevel) Priority() int {
	switch l {
	case RelevanceHigh:
		return 10
	case RelevanceMedium:
		return 5
	default:
		return 0
	}
}

// RelevanceVerdict is the classifier's judgment for one candidate.
// Immutable once produced; embedded into the review entries it spawns.
type RelevanceVerdict struct {
	Level               RelevanceLevel
	Analysis            string
	AffectedTemplateIDs []string
	RecommendedChanges  string
	Degraded            bool // true when the keyword heuristic produced the verdict
}

// RequiresReview reports whether the verdict triggers downstream
// review/publish work. Dismissed and low verdicts are recorded but never
// create review entries; a medium/high verdict with no affected templates
// has nothing to act on.
func (v RelevanceVerdict) RequiresReview() bool {
	return v.Level.AtLeast(RelevanceMedium) && len(v.AffectedTemplateIDs) > 0
}
