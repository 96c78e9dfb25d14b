package classify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/leasewatch/leasewatch/internal/llm"
	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

type fakeLLMClient struct {
	response llm.VerdictResponse
	err      error
	calls    int
}

func (f *fakeLLMClient) ClassifyRelevance(_ context.Context, _ string) (llm.VerdictResponse, error) {
	f.calls++
	if f.err != nil {
		return llm.VerdictResponse{}, f.err
	}
	return f.response, nil
}

func (f *fakeLLMClient) Close() {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetryOpts() service.RetryOptions {
	return service.RetryOptions{MaxAttempts: 2, InitialDelay: 1, MaxDelay: 1, Multiplier: 1.0}
}

var testTemplates = []model.Template{
	{ID: "ut-lease-v3", JurisdictionID: "UT", Title: "Residential Lease", Category: "lease", Active: true},
	{ID: "ut-eviction-notice", JurisdictionID: "UT", Title: "Eviction Notice", Category: "notice", Active: true},
}

var testCandidate = model.ChangeCandidate{
	SourceKind:     model.SourceBill,
	ExternalID:     "HB 204",
	JurisdictionID: "UT",
	Title:          "Security Deposit Return Timeline Extension",
	Description:    "Shortens the deposit return window from 30 to 21 days.",
}

func TestClassify_UsesModelVerdict(t *testing.T) {
	client := &fakeLLMClient{
		response: llm.VerdictResponse{
			Relevance:           "high",
			Analysis:            "Directly changes the deposit return deadline.",
			AffectedTemplateIDs: []string{"ut-lease-v3"},
			RecommendedChanges:  "Update clause 7 return window to 21 days.",
		},
	}
	c := NewClassifier(client, testLogger(), fastRetryOpts())

	verdict := c.Classify(context.Background(), testCandidate, testTemplates)

	if verdict.Level != model.RelevanceHigh {
		t.Errorf("level = %q, want high", verdict.Level)
	}
	if verdict.Degraded {
		t.Error("model verdict marked degraded")
	}
	if len(verdict.AffectedTemplateIDs) != 1 || verdict.AffectedTemplateIDs[0] != "ut-lease-v3" {
		t.Errorf("affected templates = %v", verdict.AffectedTemplateIDs)
	}
}

func TestClassify_DropsInventedTemplateIDs(t *testing.T) {
	client := &fakeLLMClient{
		response: llm.VerdictResponse{
			Relevance:           "high",
			AffectedTemplateIDs: []string{"ut-lease-v3", "ut-sublease-addendum", "ca-lease"},
		},
	}
	c := NewClassifier(client, testLogger(), fastRetryOpts())

	verdict := c.Classify(context.Background(), testCandidate, testTemplates)

	if len(verdict.AffectedTemplateIDs) != 1 {
		t.Fatalf("got %d template ids, want 1: %v", len(verdict.AffectedTemplateIDs), verdict.AffectedTemplateIDs)
	}
	if verdict.AffectedTemplateIDs[0] != "ut-lease-v3" {
		t.Errorf("kept id = %q, want ut-lease-v3", verdict.AffectedTemplateIDs[0])
	}
}

func TestClassify_FallsBackWhenModelFails(t *testing.T) {
	client := &fakeLLMClient{err: errors.New("connection refused")}
	c := NewClassifier(client, testLogger(), fastRetryOpts())

	verdict := c.Classify(context.Background(), testCandidate, testTemplates)

	if !verdict.Degraded {
		t.Error("fallback verdict not marked degraded")
	}
	// "security deposit" in the title is a high signal phrase.
	if verdict.Level != model.RelevanceHigh {
		t.Errorf("level = %q, want high from heuristic", verdict.Level)
	}
	if len(verdict.AffectedTemplateIDs) != len(testTemplates) {
		t.Errorf("heuristic attached %d templates, want %d", len(verdict.AffectedTemplateIDs), len(testTemplates))
	}
	if client.calls != 2 {
		t.Errorf("client called %d times, want 2 attempts before fallback", client.calls)
	}
}

func TestClassify_FallsBackOnUnknownRelevanceLevel(t *testing.T) {
	client := &fakeLLMClient{response: llm.VerdictResponse{Relevance: "critical"}}
	c := NewClassifier(client, testLogger(), fastRetryOpts())

	verdict := c.Classify(context.Background(), testCandidate, testTemplates)

	if !verdict.Degraded {
		t.Error("verdict from unparseable response not marked degraded")
	}
}

func TestClassify_NilClientUsesHeuristic(t *testing.T) {
	c := NewClassifier(nil, testLogger(), service.RetryOptions{})

	verdict := c.Classify(context.Background(), testCandidate, testTemplates)

	if !verdict.Degraded {
		t.Error("heuristic-only verdict not marked degraded")
	}
	if verdict.Level != model.RelevanceHigh {
		t.Errorf("level = %q, want high", verdict.Level)
	}
}

func TestHeuristicVerdict(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		body      string
		wantLevel model.RelevanceLevel
	}{
		{"eviction statute", "Amendments to forcible entry and detainer", "modifies eviction filing deadlines", model.RelevanceHigh},
		{"notice period", "Landlord entry rules", "extends the notice period before entry", model.RelevanceHigh},
		{"habitability", "Warranty of habitability clarifications", "", model.RelevanceHigh},
		{"general tenancy", "Obligations of parties to a rental agreement", "", model.RelevanceMedium},
		{"unrelated", "Motor vehicle registration fees", "adjusts fees for commercial trucks", model.RelevanceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := model.ChangeCandidate{
				SourceKind:     model.SourceBill,
				ExternalID:     "X 1",
				JurisdictionID: "UT",
				Title:          tt.title,
				Body:           tt.body,
			}

			verdict := heuristicVerdict(candidate, testTemplates)
			if verdict.Level != tt.wantLevel {
				t.Errorf("level = %q, want %q", verdict.Level, tt.wantLevel)
			}
			if tt.wantLevel == model.RelevanceLow && len(verdict.AffectedTemplateIDs) != 0 {
				t.Errorf("low verdict attached templates: %v", verdict.AffectedTemplateIDs)
			}
			if tt.wantLevel.AtLeast(model.RelevanceMedium) && len(verdict.AffectedTemplateIDs) == 0 {
				t.Error("reviewable verdict attached no templates")
			}
		})
	}
}
