package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/shelfwatch/shelfwatch/internal/browser"
	"github.com/shelfwatch/shelfwatch/internal/config"
	"github.com/shelfwatch/shelfwatch/internal/engine"
	"github.com/shelfwatch/shelfwatch/internal/notify"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

func buildLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Logging.Level, cfg.Logging.Format)
}

// buildStore opens the configured state backend. The Postgres backend is
// migrated on open so the daemon can start against an empty database.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		ps, err := store.NewPostgresStore(ctx, cfg.Store.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := ps.Migrate(ctx); err != nil {
			ps.Close()
			return nil, fmt.Errorf("migrating postgres store: %w", err)
		}
		return ps, nil
	default:
		fs, err := store.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}
		return fs, nil
	}
}

// buildNotifier assembles the configured notification targets into one
// Notifier. With nothing enabled, events are logged and dropped.
func buildNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	var targets notify.Fanout

	if cfg.Notifications.Discord.Enabled {
		targets = append(targets, notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL))
	}
	if cfg.Notifications.Webhook.Enabled {
		targets = append(targets, notify.NewWebhookNotifier(
			cfg.Notifications.Webhook.URL,
			cfg.Notifications.Webhook.Headers,
		))
	}

	if len(targets) == 0 {
		return notify.NewNoOpNotifier(log)
	}
	return targets
}

// buildPoller wires the browser, store, and notifiers into a Poller with
// the configured cadence and rate limit.
func buildPoller(cfg *config.Config, s store.Store, n notify.Notifier, log *slog.Logger) *engine.Poller {
	src := browser.New(cfg.Browser, log)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst)

	return engine.NewPoller(src, s, n,
		engine.WithLogger(log),
		engine.WithDefaultInterval(cfg.Poll.Interval),
		engine.WithJitterBound(cfg.Poll.Jitter),
		engine.WithRateLimiter(limiter),
	)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
