package notify

import (
	"context"
	"log/slog"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// NoOpNotifier implements Notifier by logging discarded events. It is used
// when no notification backend is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards events with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// Send logs and discards one event.
func (n *NoOpNotifier) Send(_ context.Context, event *domain.NotificationEvent) error {
	n.log.Debug("notification discarded (no backend configured)",
		"item", event.ItemID,
		"status", event.Status,
		"reasons", event.Reasons,
	)
	return nil
}
