// Package notify defines the notification interface and implementations
// for stock and price alerts. Delivery is fire-and-forget: callers log
// failures and move on, they never retry and never let delivery block
// state persistence.
package notify

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// Notifier delivers one notification event.
type Notifier interface {
	Send(ctx context.Context, event *domain.NotificationEvent) error
}

// FormatPrice renders a price for human-readable output, with the
// source-locale "not applicable" marker when unset.
func FormatPrice(price *float64) string {
	if price == nil {
		return "n.v.t."
	}
	return fmt.Sprintf("%.2f€", *price)
}

// FormatMessage renders an event as the free-text message used by sinks
// that take plain text.
func FormatMessage(event *domain.NotificationEvent) string {
	status := string(event.Status)
	if event.Status == domain.StatusInStock {
		status = "🟢 OP VOORRAAD"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔔 %s is %s\n", event.Title, status)
	fmt.Fprintf(&b, "Prijs: %s", FormatPrice(event.Price))
	if event.StockHint != nil {
		fmt.Fprintf(&b, "\nSchatting voorraad: %d", *event.StockHint)
	}
	if event.URL != "" {
		fmt.Fprintf(&b, "\nLink: %s", event.URL)
	}
	return b.String()
}

// Fanout delivers each event to every wrapped notifier, collecting errors
// without short-circuiting: one failing sink must not starve the others.
type Fanout []Notifier

// Send delivers the event to all sinks.
func (f Fanout) Send(ctx context.Context, event *domain.NotificationEvent) error {
	var errs []string
	for _, n := range f {
		if err := n.Send(ctx, event); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("delivering notification: %s", strings.Join(errs, "; "))
	}
	return nil
}
