// Package browser drives a headless Chrome session to render product
// pages. It owns navigation, consent-dialog dismissal, and the canonical
// URL retry loop; DOM interpretation is delegated to internal/page.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/shelfwatch/shelfwatch/internal/config"
	"github.com/shelfwatch/shelfwatch/internal/page"
	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// consentLabels are the button texts of the cookie consent dialogs the
// target shop shows, tried most specific first.
var consentLabels = []string{
	"Alles accepteren",
	"Ik ga akkoord",
	"Accepteren",
	"Akkoord",
}

// Browser acquires rendered pages through headless Chrome.
type Browser struct {
	cfg config.BrowserConfig
	log *slog.Logger
}

// New creates a Browser from navigation settings.
func New(cfg config.BrowserConfig, log *slog.Logger) *Browser {
	return &Browser{cfg: cfg, log: log}
}

// Acquire navigates to rawURL, dismisses consent dialogs, re-navigates
// while the shop bounces us off the canonical product path, and parses
// the final DOM. One call owns one Chrome session; the configured
// timeout bounds the whole attempt.
func (b *Browser) Acquire(ctx context.Context, rawURL string) (*domain.RenderedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", !b.cfg.DisableHeadless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(b.cfg.UserAgent),
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()

	var finalURL string
	if err := chromedp.Run(chromeCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		dismissConsent(b.log),
		chromedp.Location(&finalURL),
	); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", rawURL, err)
	}

	// Consent flows and bot checks sometimes land us on an interstitial
	// instead of the product page. Re-navigate until the resolved URL
	// carries the canonical product path.
	for attempt := 0; attempt < b.cfg.NavRetries && !b.isCanonical(finalURL); attempt++ {
		b.log.Debug("re-navigating to canonical page",
			"url", rawURL, "landed_on", finalURL, "attempt", attempt+1)
		if err := chromedp.Run(chromeCtx,
			chromedp.Navigate(rawURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			dismissConsent(b.log),
			chromedp.Location(&finalURL),
		); err != nil {
			return nil, fmt.Errorf("re-navigating to %s: %w", rawURL, err)
		}
	}

	var html, title string
	if err := chromedp.Run(chromeCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Title(&title),
	); err != nil {
		return nil, fmt.Errorf("capturing page %s: %w", rawURL, err)
	}

	p, err := page.Parse(html, finalURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page %s: %w", rawURL, err)
	}
	if title != "" {
		p.DocumentTitle = strings.TrimSpace(title)
	}

	b.log.Debug("page acquired",
		"final_url", finalURL,
		"canonical", b.isCanonical(finalURL),
		"latency_ms", time.Since(start).Milliseconds(),
		"html_bytes", len(html),
	)
	return p, nil
}

func (b *Browser) isCanonical(resolvedURL string) bool {
	return strings.Contains(resolvedURL, b.cfg.CanonicalPath)
}

// dismissConsent clicks the first consent button matching a known label,
// searching the top document and then every same-origin frame. A page
// without a dialog is the normal case, so a miss is not an error; a click
// is followed by a short settle delay.
func dismissConsent(log *slog.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		script := consentClickScript()
		var clicked bool
		if err := chromedp.Evaluate(script, &clicked).Do(ctx); err != nil {
			log.Debug("consent dismissal evaluate failed", "error", err)
			return nil
		}
		if !clicked {
			return nil
		}
		log.Debug("consent dialog dismissed")
		return chromedp.Sleep(500 * time.Millisecond).Do(ctx)
	})
}

func consentClickScript() string {
	var quoted []string
	for _, label := range consentLabels {
		quoted = append(quoted, fmt.Sprintf("%q", label))
	}
	return fmt.Sprintf(`(() => {
		const labels = [%s];
		const click = (doc) => {
			const controls = Array.from(doc.querySelectorAll('button, [role="button"]'));
			for (const label of labels) {
				const hit = controls.find(el => (el.textContent || '').trim() === label);
				if (hit) { hit.click(); return true; }
			}
			return false;
		};
		if (click(document)) { return true; }
		for (const frame of Array.from(window.frames)) {
			try {
				if (frame.document && click(frame.document)) { return true; }
			} catch (e) {
				// cross-origin frame, skip
			}
		}
		return false;
	})()`, strings.Join(quoted, ", "))
}
