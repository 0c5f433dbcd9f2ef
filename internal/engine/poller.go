// Package engine drives the per-item polling loops: acquire a page,
// extract a snapshot, decide on notification, persist. It owns the core
// scheduling behavior (intervals, floor, jitter) and delegates navigation,
// storage, and delivery to injected collaborators.
package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/shelfwatch/shelfwatch/internal/metrics"
	"github.com/shelfwatch/shelfwatch/internal/notify"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/pkg/extract"
	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// IntervalFloor is the hard lower bound on any item's polling interval,
// bounding the request rate to the site regardless of configuration.
const IntervalFloor = 5 * time.Minute

// PageSource is the navigation driver as seen by the poller: it produces a
// rendered page view for a URL. Acquisition-level failures (network,
// timeout) surface as errors; page-content problems do not.
type PageSource interface {
	Acquire(ctx context.Context, url string) (*domain.RenderedPage, error)
}

// Poller runs one independent polling loop per tracked item.
type Poller struct {
	source   PageSource
	store    store.Store
	notifier notify.Notifier
	log      *slog.Logger

	defaultInterval time.Duration
	jitter          time.Duration
	limiter         *rate.Limiter
	randFunc        func() float64
	nowFunc         func() time.Time
}

// NewPoller creates a Poller with injected collaborators.
func NewPoller(src PageSource, s store.Store, n notify.Notifier, opts ...PollerOption) *Poller {
	p := &Poller{
		source:          src,
		store:           s,
		notifier:        n,
		log:             slog.Default(),
		defaultInterval: 30 * time.Minute,
		jitter:          45 * time.Second,
		randFunc:        rand.Float64,
		nowFunc:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollerOption configures the Poller.
type PollerOption func(*Poller)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.log = l
	}
}

// WithDefaultInterval sets the interval for items without their own.
func WithDefaultInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.defaultInterval = d
	}
}

// WithJitterBound sets the upper bound of the per-sleep random jitter.
func WithJitterBound(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.jitter = d
	}
}

// WithRateLimiter bounds page acquisitions across all item loops.
func WithRateLimiter(l *rate.Limiter) PollerOption {
	return func(p *Poller) {
		p.limiter = l
	}
}

// WithRandFunc overrides the jitter randomness source for testing.
func WithRandFunc(f func() float64) PollerOption {
	return func(p *Poller) {
		p.randFunc = f
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) PollerOption {
	return func(p *Poller) {
		p.nowFunc = f
	}
}

// EffectiveInterval returns the polling interval for an item: its own
// configured interval when present, else the default, never below the
// hard floor.
func EffectiveInterval(item domain.TrackedItem, defaultInterval time.Duration) time.Duration {
	interval := defaultInterval
	if item.IntervalMinutes != nil {
		interval = time.Duration(*item.IntervalMinutes) * time.Minute
	}
	return max(interval, IntervalFloor)
}

// WithJitter returns interval plus a uniformly random delay in
// [0, jitter). rnd must return a value in [0, 1).
func WithJitter(interval, jitter time.Duration, rnd func() float64) time.Duration {
	if jitter <= 0 {
		return interval
	}
	return interval + time.Duration(rnd()*float64(jitter))
}

// Run starts one polling loop per item and blocks until ctx is cancelled
// and all loops have exited. Items never block each other; a stalled
// navigation stalls only its own loop.
func (p *Poller) Run(ctx context.Context, items []domain.TrackedItem) {
	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item domain.TrackedItem) {
			defer wg.Done()
			p.loop(ctx, item)
		}(item)
	}
	wg.Wait()
}

// RunPass performs one synchronous poll of every item, in watchlist order.
// Used by the run-once mode.
func (p *Poller) RunPass(ctx context.Context, items []domain.TrackedItem) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.PollItem(ctx, item)
	}
	return nil
}

// loop is one item's infinite cycle: poll, then sleep the jittered
// interval. Cancellation is checked at the top of each cycle and during
// the sleep.
func (p *Poller) loop(ctx context.Context, item domain.TrackedItem) {
	interval := EffectiveInterval(item, p.defaultInterval)
	log := p.log.With("item", item.ID)
	log.Info("polling loop started", "interval", interval)

	for {
		if ctx.Err() != nil {
			log.Info("polling loop stopped")
			return
		}

		p.PollItem(ctx, item)

		wait := WithJitter(interval, p.jitter, p.randFunc)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("polling loop stopped")
			return
		case <-timer.C:
		}
	}
}

// PollItem runs one full cycle for one item. No failure below the
// watchlist load is ever allowed to kill the loop: acquisition errors
// degrade to an UNKNOWN snapshot, delivery and persistence errors are
// logged and counted.
func (p *Poller) PollItem(ctx context.Context, item domain.TrackedItem) {
	start := p.nowFunc()
	log := p.log.With("item", item.ID, "poll_id", uuid.NewString())
	log.Debug("checking item", "url", item.URL)

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return // cancelled while waiting for a slot
		}
	}

	curr := p.observe(ctx, item, log)

	prev, err := p.store.Get(ctx, item.ID)
	if err != nil {
		log.Error("reading previous state failed", "error", err)
		prev = nil
	}

	decision := Decide(prev, curr, item)
	if decision.Notify {
		p.deliver(ctx, decision.Event, log)
	}

	// The new snapshot is persisted unconditionally so the next
	// comparison always uses the freshest observation.
	snap := domain.StoredSnapshot{
		Status:     curr.Status,
		Price:      curr.Price,
		StockHint:  curr.StockHint,
		ObservedAt: p.nowFunc(),
	}
	if err := p.store.Put(ctx, item.ID, snap); err != nil {
		metrics.StateWriteFailuresTotal.Inc()
		log.Error("persisting state failed", "error", err)
	}

	metrics.PollsTotal.WithLabelValues(string(curr.Status)).Inc()
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	log.Info("poll result",
		"status", curr.Status,
		"price", priceAttr(curr.Price),
		"notified", decision.Notify,
	)
}

// observe acquires and extracts one snapshot, degrading to UNKNOWN when
// acquisition itself fails. The error is not retried within this cycle;
// the next scheduled poll retries naturally.
func (p *Poller) observe(ctx context.Context, item domain.TrackedItem, log *slog.Logger) domain.ProductSnapshot {
	page, err := p.source.Acquire(ctx, item.URL)
	if err != nil {
		metrics.AcquisitionFailuresTotal.Inc()
		log.Warn("page acquisition failed", "error", err)
		return domain.ProductSnapshot{Status: domain.StatusUnknown}
	}

	snap := extract.Extract(page)
	recordFieldMetrics(snap)
	return snap
}

func (p *Poller) deliver(ctx context.Context, event *domain.NotificationEvent, log *slog.Logger) {
	if err := p.notifier.Send(ctx, event); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		log.Warn("notification delivery failed", "error", err)
		return
	}
	metrics.NotificationsSentTotal.Inc()
	log.Info("notification sent", "reasons", event.Reasons)
}

func recordFieldMetrics(snap domain.ProductSnapshot) {
	if snap.Status != domain.StatusUnknown {
		metrics.ExtractionFieldsFound.WithLabelValues("status").Inc()
	}
	if snap.Price != nil {
		metrics.ExtractionFieldsFound.WithLabelValues("price").Inc()
	}
	if snap.Title != nil {
		metrics.ExtractionFieldsFound.WithLabelValues("title").Inc()
	}
	if snap.StockHint != nil {
		metrics.ExtractionFieldsFound.WithLabelValues("stock_hint").Inc()
	}
}

func priceAttr(price *float64) any {
	if price == nil {
		return nil
	}
	return *price
}
