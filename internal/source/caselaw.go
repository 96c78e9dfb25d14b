package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
)

const (
	defaultCaseBaseURL = "https://www.courtlistener.com"
	caseSearchQuery    = "landlord tenant"
)

// CaseConfig holds court opinion search API settings.
type CaseConfig struct {
	APIKey  string
	BaseURL string
	// FetchBodies enables the second round-trip per opinion for the full
	// text. Off by default; search snippets are usually enough for the
	// classifier.
	FetchBodies bool
}

// CaseLawSource fetches published appellate opinions from a court
// opinion search API.
type CaseLawSource struct {
	httpClient  *http.Client
	logger      *slog.Logger
	apiKey      string
	baseURL     string
	fetchBodies bool
}

// NewCaseLawSource creates a case law feed from config.
func NewCaseLawSource(cfg CaseConfig, logger *slog.Logger) *CaseLawSource {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultCaseBaseURL
	}

	return &CaseLawSource{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		fetchBodies: cfg.FetchBodies,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Kind identifies this source in the dedup ledger.
func (s *CaseLawSource) Kind() model.SourceKind {
	return model.SourceCase
}

// Enabled reports whether an API token is configured.
func (s *CaseLawSource) Enabled() bool {
	return s.apiKey != ""
}

// FetchCandidates searches for landlord-tenant opinions filed in or
// after the given year.
func (s *CaseLawSource) FetchCandidates(ctx context.Context, jurisdictionID string, sinceYear int) ([]model.ChangeCandidate, error) {
	query := url.Values{}
	query.Set("type", "o")
	query.Set("q", caseSearchQuery)
	query.Set("court", strings.ToLower(jurisdictionID))
	query.Set("filed_after", fmt.Sprintf("%d-01-01", sinceYear))

	reqURL := s.baseURL + "/api/rest/v4/search/?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create opinion request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: opinion search: %v", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading opinion response: %v", common.ErrSourceUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: opinion search (status %d)", common.ErrRateLimit, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: opinion search returned status %d: %s", common.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	var result opinionSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: parsing opinion response: %v", common.ErrSourceUnavailable, err)
	}

	candidates := make([]model.ChangeCandidate, 0, len(result.Results))
	for _, opinion := range result.Results {
		candidate := model.ChangeCandidate{
			SourceKind:     model.SourceCase,
			ExternalID:     "cluster-" + strconv.Itoa(opinion.ClusterID),
			JurisdictionID: jurisdictionID,
			Title:          opinion.CaseName,
			Description:    stripHTML(opinion.Snippet),
			DiscoveredAt:   time.Now(),
		}

		if s.fetchBodies && opinion.OpinionID != 0 {
			candidate.Body = s.fetchOpinionBody(ctx, opinion.OpinionID)
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// fetchOpinionBody retrieves the full opinion text. Failure returns an
// empty body; the snippet already carries enough for classification.
func (s *CaseLawSource) fetchOpinionBody(ctx context.Context, opinionID int) string {
	reqURL := fmt.Sprintf("%s/api/rest/v4/opinions/%d/", s.baseURL, opinionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("opinion body fetch failed", "opinion_id", opinionID, "error", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("opinion body fetch failed", "opinion_id", opinionID, "status", resp.StatusCode)
		return ""
	}

	var opinion struct {
		PlainText string `json:"plain_text"`
		HTML      string `json:"html"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&opinion); err != nil {
		s.logger.Warn("opinion body parse failed", "opinion_id", opinionID, "error", err)
		return ""
	}

	if opinion.PlainText != "" {
		return opinion.PlainText
	}
	return stripHTML(opinion.HTML)
}

// stripHTML reduces an HTML fragment to its text content.
func stripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	return strings.TrimSpace(doc.Text())
}

type opinionSearchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		ClusterID int    `json:"cluster_id"`
		OpinionID int    `json:"opinion_id"`
		CaseName  string `json:"caseName"`
		DateFiled string `json:"dateFiled"`
		Snippet   string `json:"snippet"`
	} `json:"results"`
}
