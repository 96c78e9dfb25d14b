package llm

import (
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantRelevance string
		wantTemplates int
		wantErr       bool
	}{
		{
			name: "plain JSON",
			content: `{"relevance": "high", "analysis": "Shortens the deposit return window.",
				"affectedTemplateIds": ["ut-lease-v3", "ut-deposit-receipt"],
				"recommendedChanges": "Update clause 7."}`,
			wantRelevance: "high",
			wantTemplates: 2,
		},
		{
			name:          "markdown fenced JSON",
			content:       "```json\n{\"relevance\": \"medium\", \"analysis\": \"notice periods\", \"affectedTemplateIds\": [\"ut-eviction-notice\"]}\n```",
			wantRelevance: "medium",
			wantTemplates: 1,
		},
		{
			name:          "bare fence without language",
			content:       "```\n{\"relevance\": \"low\"}\n```",
			wantRelevance: "low",
		},
		{
			name:          "dismissed with no templates",
			content:       `{"relevance": "dismissed", "analysis": "Commercial zoning only."}`,
			wantRelevance: "dismissed",
		},
		{
			name:          "relevance normalized to lower case",
			content:       `{"relevance": " HIGH ", "affectedTemplateIds": ["nv-lease"]}`,
			wantRelevance: "high",
			wantTemplates: 1,
		},
		{
			name:    "missing relevance",
			content: `{"analysis": "something"}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			content: "This bill is highly relevant to landlords.",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerdict(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVerdict failed: %v", err)
			}
			if got.Relevance != tt.wantRelevance {
				t.Errorf("relevance = %q, want %q", got.Relevance, tt.wantRelevance)
			}
			if len(got.AffectedTemplateIDs) != tt.wantTemplates {
				t.Errorf("got %d template ids, want %d", len(got.AffectedTemplateIDs), tt.wantTemplates)
			}
		})
	}
}

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no wrapper", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanMarkdownWrapper(tt.content); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
