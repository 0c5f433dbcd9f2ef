package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// WebhookNotifier implements Notifier via a generic JSON webhook: the raw
// event plus a rendered text line, POSTed with configurable headers.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(url string, headers map[string]string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		url:     url,
		headers: headers,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithWebhookHTTPClient sets a custom HTTP client.
func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		w.client = c
	}
}

type webhookBody struct {
	ItemID    string   `json:"item_id"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Price     *float64 `json:"price,omitempty"`
	StockHint *int     `json:"stock_hint,omitempty"`
	URL       string   `json:"url,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
	Text      string   `json:"text"`
}

// Send POSTs one event as JSON.
func (w *WebhookNotifier) Send(ctx context.Context, event *domain.NotificationEvent) error {
	body, err := json.Marshal(webhookBody{
		ItemID:    event.ItemID,
		Title:     event.Title,
		Status:    string(event.Status),
		Price:     event.Price,
		StockHint: event.StockHint,
		URL:       event.URL,
		Reasons:   event.Reasons,
		Text:      FormatMessage(event),
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}

	return nil
}
