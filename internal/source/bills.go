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

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
)

const (
	defaultBillBaseURL = "https://v3.openstates.org"
	billSearchQuery    = "landlord OR tenant OR lease OR eviction"
	billPageSize       = 20
	maxBillPages       = 10
)

// BillConfig holds legislative search API settings.
type BillConfig struct {
	APIKey  string
	BaseURL string
}

// BillSource fetches pending and enacted legislation from a bill
// search API. Without an API key the source reports disabled.
type BillSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string
}

// NewBillSource creates a bill feed from config.
func NewBillSource(cfg BillConfig, logger *slog.Logger) *BillSource {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBillBaseURL
	}

	return &BillSource{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Kind identifies this source in the dedup ledger.
func (s *BillSource) Kind() model.SourceKind {
	return model.SourceBill
}

// Enabled reports whether an API key is configured.
func (s *BillSource) Enabled() bool {
	return s.apiKey != ""
}

// FetchCandidates searches for landlord-tenant legislation in a
// jurisdiction, walking result pages until the API reports the last.
func (s *BillSource) FetchCandidates(ctx context.Context, jurisdictionID string, sinceYear int) ([]model.ChangeCandidate, error) {
	var candidates []model.ChangeCandidate

	for page := 1; page <= maxBillPages; page++ {
		result, err := s.fetchPage(ctx, jurisdictionID, sinceYear, page)
		if err != nil {
			return nil, err
		}

		for _, bill := range result.Results {
			candidates = append(candidates, model.ChangeCandidate{
				SourceKind:     model.SourceBill,
				ExternalID:     bill.Identifier,
				JurisdictionID: jurisdictionID,
				Title:          bill.Title,
				Description:    bill.Abstract,
				DiscoveredAt:   time.Now(),
			})
		}

		if result.Pagination.Page >= result.Pagination.MaxPage {
			break
		}
	}

	s.logger.Debug("bill search complete",
		"jurisdiction", jurisdictionID,
		"candidates", len(candidates))

	return candidates, nil
}

func (s *BillSource) fetchPage(ctx context.Context, jurisdictionID string, sinceYear, page int) (*billSearchResponse, error) {
	query := url.Values{}
	query.Set("jurisdiction", jurisdictionID)
	query.Set("q", billSearchQuery)
	query.Set("created_since", fmt.Sprintf("%d-01-01", sinceYear))
	query.Set("per_page", strconv.Itoa(billPageSize))
	query.Set("page", strconv.Itoa(page))

	reqURL := s.baseURL + "/bills?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create bill request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: bill search: %v", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading bill response: %v", common.ErrSourceUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: bill search (status %d)", common.ErrRateLimit, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bill search returned status %d: %s", common.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	var result billSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: parsing bill response: %v", common.ErrSourceUnavailable, err)
	}

	return &result, nil
}

type billSearchResponse struct {
	Results []struct {
		Identifier string `json:"identifier"`
		Title      string `json:"title"`
		Abstract   string `json:"abstract"`
		Session    string `json:"session"`
	} `json:"results"`
	Pagination struct {
		Page    int `json:"page"`
		MaxPage int `json:"max_page"`
	} `json:"pagination"`
}
