package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseVerdict extracts a relevance verdict from the model's raw text
// output. The relevance field is mandatory; everything else may be
// empty for dismissed or low verdicts.
func parseVerdict(content string) (VerdictResponse, error) {
	var jsonResp struct {
		Relevance           string   `json:"relevance"`
		Analysis            string   `json:"analysis"`
		AffectedTemplateIDs []string `json:"affectedTemplateIds"`
		RecommendedChanges  string   `json:"recommendedChanges"`
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return VerdictResponse{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if jsonResp.Relevance == "" {
		return VerdictResponse{}, fmt.Errorf("no relevance level found in response")
	}

	return VerdictResponse{
		Relevance:           strings.ToLower(strings.TrimSpace(jsonResp.Relevance)),
		Analysis:            jsonResp.Analysis,
		AffectedTemplateIDs: jsonResp.AffectedTemplateIDs,
		RecommendedChanges:  jsonResp.RecommendedChanges,
	}, nil
}

// cleanMarkdownWrapper strips a markdown code fence that some models
// wrap around JSON output despite instructions not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```json")
			content = strings.TrimPrefix(content, "```")
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}
