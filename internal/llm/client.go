package llm

import (
	"context"
)

// Client defines the interface for LLM providers.
type Client interface {
	ClassifyRelevance(ctx context.Context, prompt string) (VerdictResponse, error)
	Close()
}

// VerdictResponse contains the LLM's relevance assessment for a single
// legal change candidate.
type VerdictResponse struct {
	Relevance           string
	Analysis            string
	AffectedTemplateIDs []string
	RecommendedChanges  string
}

// Config holds LLM provider configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	RateLimit   int
	Temperature float64
	MaxTokens   int
}
