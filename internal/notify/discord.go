package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

const (
	colorGreen = 0x2ECC71 // became available
	colorBlue  = 0x3498DB // price events
	colorGray  = 0x95A5A6 // everything else
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title  string              `json:"title"`
	URL    string              `json:"url,omitempty"`
	Color  int                 `json:"color"`
	Fields []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Send delivers one event as a Discord embed.
func (d *DiscordNotifier) Send(ctx context.Context, event *domain.NotificationEvent) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(event)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(event *domain.NotificationEvent) discordEmbed {
	embed := discordEmbed{
		Title: fmt.Sprintf("🔔 %s", event.Title),
		URL:   event.URL,
		Color: eventColor(event),
		Fields: []discordEmbedField{
			{Name: "Status", Value: statusLabel(event.Status), Inline: true},
			{Name: "Prijs", Value: FormatPrice(event.Price), Inline: true},
		},
	}

	if event.StockHint != nil {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:   "Voorraad",
			Value:  fmt.Sprintf("±%d", *event.StockHint),
			Inline: true,
		})
	}

	if len(event.Reasons) > 0 {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  "Reden",
			Value: strings.Join(event.Reasons, ", "),
		})
	}

	return embed
}

func statusLabel(status domain.Status) string {
	switch status {
	case domain.StatusInStock:
		return "🟢 OP VOORRAAD"
	case domain.StatusOutOfStock:
		return "🔴 UITVERKOCHT"
	default:
		return string(status)
	}
}

func eventColor(event *domain.NotificationEvent) int {
	for _, r := range event.Reasons {
		if r == "became_in_stock" {
			return colorGreen
		}
	}
	for _, r := range event.Reasons {
		if r == "price_drop" || r == "below_target" {
			return colorBlue
		}
	}
	return colorGray
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
