package classify

import (
	"fmt"
	"strings"

	"github.com/leasewatch/leasewatch/internal/model"
)

// highSignalPhrases mark changes that almost always require template
// updates when they appear in a bill or opinion.
var highSignalPhrases = []string{
	"eviction",
	"security deposit",
	"lease termination",
	"notice requirement",
	"notice period",
	"habitability",
	"rent increase",
}

// mediumSignalPhrases cover the general landlord-tenant vocabulary.
var mediumSignalPhrases = []string{
	"landlord",
	"tenant",
	"lease",
	"rental agreement",
	"residential tenanc",
	"premises",
}

// heuristicVerdict classifies a candidate by keyword matching alone.
// It attaches the full active template list for medium and high hits
// so an attorney triages the affected documents instead of the model.
func heuristicVerdict(candidate model.ChangeCandidate, templates []model.Template) model.RelevanceVerdict {
	text := strings.ToLower(candidate.Title + " " + candidate.Description + " " + candidate.Body)

	level := model.RelevanceLow
	var matched string
	for _, phrase := range highSignalPhrases {
		if strings.Contains(text, phrase) {
			level = model.RelevanceHigh
			matched = phrase
			break
		}
	}
	if level != model.RelevanceHigh {
		for _, phrase := range mediumSignalPhrases {
			if strings.Contains(text, phrase) {
				level = model.RelevanceMedium
				matched = phrase
				break
			}
		}
	}

	verdict := model.RelevanceVerdict{Level: level}
	if level == model.RelevanceLow {
		verdict.Analysis = "Keyword screen found no landlord-tenant terms requiring template review."
		return verdict
	}

	verdict.Analysis = fmt.Sprintf("Keyword screen matched %q; manual review of the full text is required.", matched)
	verdict.RecommendedChanges = "Review the source text against each flagged template."
	for _, t := range templates {
		verdict.AffectedTemplateIDs = append(verdict.AffectedTemplateIDs, t.ID)
	}

	return verdict
}
