package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
)

// WebhookSink POSTs events to the notification service. Delivery is
// fire-and-forget from the caller's point of view: the response body is
// discarded and only the status code is checked.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSink(url string, httpClient *http.Client) *WebhookSink {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WebhookSink{url: url, httpClient: httpClient}
}

type webhookPayload struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	MatchID  string            `json:"matchId"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *WebhookSink) Deliver(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(webhookPayload{
		Type:     string(event.Type),
		Title:    event.Title,
		Message:  event.Message,
		MatchID:  string(event.MatchID),
		Metadata: event.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return nil
}
