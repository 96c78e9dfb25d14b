// Package notify delivers template publish events to subscribers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/leasewatch/leasewatch/internal/service"
)

// WebhookNotifier posts publish events to a configured endpoint. With
// no endpoint it degrades to a logging no-op.
type WebhookNotifier struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

var _ service.Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a notifier for the given endpoint. An
// empty endpoint is allowed.
func NewWebhookNotifier(endpoint string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TemplatePublished posts a publish event. Delivery is best effort;
// callers treat failures as non-fatal.
func (n *WebhookNotifier) TemplatePublished(ctx context.Context, templateID string, version int, reason string) error {
	if n.endpoint == "" {
		n.logger.Debug("notifier unconfigured, skipping publish event",
			"template_id", templateID,
			"version", version)
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"event":       "template_published",
		"templateId":  templateID,
		"version":     version,
		"reason":      reason,
		"publishedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal publish event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create publish event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver publish event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("publish event rejected with status %d", resp.StatusCode)
	}

	return nil
}
