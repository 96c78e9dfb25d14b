// Package classify turns legal change candidates into relevance
// verdicts using an LLM, with a keyword heuristic as fallback.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/llm"
	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

// maxBodyChars bounds how much of a candidate body is sent to the
// model. Bills and opinions can run to hundreds of pages; the opening
// sections carry the operative language.
const maxBodyChars = 6000

// Classifier assesses whether a legal change affects any of a
// jurisdiction's document templates.
type Classifier struct {
	client    llm.Client
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

// NewClassifier creates a classifier backed by the given LLM client.
// A nil client is allowed and forces heuristic-only operation.
func NewClassifier(client llm.Client, logger *slog.Logger, retryOpts service.RetryOptions) *Classifier {
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}
	if retryOpts.MaxDelay == 0 {
		retryOpts.MaxDelay = 30 * time.Second
	}
	if retryOpts.Multiplier == 0 {
		retryOpts.Multiplier = 2.0
	}

	return &Classifier{
		client:    client,
		logger:    logger,
		retryOpts: retryOpts,
	}
}

// Classify produces a relevance verdict for a candidate against the
// jurisdiction's active templates. It never returns an error: when the
// model is unavailable or returns garbage, the keyword heuristic takes
// over and the verdict is marked degraded.
func (c *Classifier) Classify(ctx context.Context, candidate model.ChangeCandidate, templates []model.Template) model.RelevanceVerdict {
	if c.client == nil {
		return c.fallback(candidate, templates, "no LLM client configured")
	}

	prompt := buildPrompt(candidate, templates)

	var response llm.VerdictResponse
	err := common.WithRetry(ctx, func() error {
		resp, err := c.client.ClassifyRelevance(ctx, prompt)
		if err != nil {
			c.logger.Warn("relevance classification attempt failed",
				"error", err,
				"source_kind", candidate.SourceKind,
				"external_id", candidate.ExternalID)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		level := model.RelevanceLevel(resp.Relevance)
		if !level.Valid() {
			c.logger.Warn("model returned unknown relevance level",
				"relevance", resp.Relevance,
				"external_id", candidate.ExternalID)
			return &common.RetryableError{
				Err:       fmt.Errorf("unknown relevance level %q", resp.Relevance),
				Retryable: true,
			}
		}

		response = resp
		return nil
	}, c.retryOpts)

	if err != nil {
		return c.fallback(candidate, templates, err.Error())
	}

	verdict := model.RelevanceVerdict{
		Level:               model.RelevanceLevel(response.Relevance),
		Analysis:            response.Analysis,
		AffectedTemplateIDs: c.filterKnownTemplates(response.AffectedTemplateIDs, templates, candidate),
		RecommendedChanges:  response.RecommendedChanges,
	}

	c.logger.Info("candidate classified",
		"source_kind", candidate.SourceKind,
		"external_id", candidate.ExternalID,
		"jurisdiction", candidate.JurisdictionID,
		"relevance", verdict.Level,
		"affected_templates", len(verdict.AffectedTemplateIDs))

	return verdict
}

// fallback runs the keyword heuristic and marks the verdict degraded
// so downstream review entries show it came from the fallback path.
func (c *Classifier) fallback(candidate model.ChangeCandidate, templates []model.Template, cause string) model.RelevanceVerdict {
	c.logger.Warn("falling back to heuristic classification",
		"cause", cause,
		"source_kind", candidate.SourceKind,
		"external_id", candidate.ExternalID)

	verdict := heuristicVerdict(candidate, templates)
	verdict.Degraded = true
	return verdict
}

// filterKnownTemplates drops template ids the model invented. Only ids
// from the jurisdiction's active catalog may reach the review queue.
func (c *Classifier) filterKnownTemplates(ids []string, templates []model.Template, candidate model.ChangeCandidate) []string {
	known := make(map[string]bool, len(templates))
	for _, t := range templates {
		known[t.ID] = true
	}

	var kept []string
	for _, id := range ids {
		if known[id] {
			kept = append(kept, id)
			continue
		}
		c.logger.Warn("dropping unknown template id from verdict",
			"template_id", id,
			"external_id", candidate.ExternalID)
	}

	return kept
}

// buildPrompt creates the relevance assessment prompt for a candidate.
func buildPrompt(candidate model.ChangeCandidate, templates []model.Template) string {
	body := candidate.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars] + "\n[truncated]"
	}

	templateList := ""
	for _, t := range templates {
		templateList += fmt.Sprintf("- %s: %s (%s)\n", t.ID, t.Title, t.Category)
	}

	details := fmt.Sprintf("Source: %s\nIdentifier: %s\nJurisdiction: %s\nTitle: %s",
		candidate.SourceKind,
		candidate.ExternalID,
		candidate.JurisdictionID,
		candidate.Title)
	if candidate.Description != "" {
		details += fmt.Sprintf("\nSummary: %s", candidate.Description)
	}
	if strings.TrimSpace(body) != "" {
		details += fmt.Sprintf("\nText:\n%s", body)
	}

	return fmt.Sprintf(`Assess whether this legal change affects any of the landlord document templates listed below.

Legal Change:
%s

Templates for jurisdiction %s:
%s
Instructions:
1. Rate the relevance to landlord-tenant document templates as exactly one of: dismissed, low, medium, high
   - high: the change directly alters obligations, deadlines, or required language in one or more templates
   - medium: the change plausibly affects template language and deserves attorney review
   - low: related to landlord-tenant law but does not touch template content
   - dismissed: unrelated to residential landlord-tenant practice
2. List ONLY template ids from the list above in affectedTemplateIds. Never invent ids.
3. Respond with a JSON object in this exact shape:
{"relevance": "<level>", "analysis": "<2-3 sentences>", "affectedTemplateIds": ["<id>"], "recommendedChanges": "<what to update, or empty>"}`,
		details,
		candidate.JurisdictionID,
		templateList)
}
