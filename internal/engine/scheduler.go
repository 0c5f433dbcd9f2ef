package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shelfwatch/shelfwatch/internal/store"
	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// Scheduler runs periodic housekeeping jobs alongside the polling loops,
// currently a state summary logged at a fixed interval.
type Scheduler struct {
	cron  *cron.Cron
	store store.Store
	items []domain.TrackedItem
	log   *slog.Logger
}

// NewScheduler creates a Scheduler that logs an aggregate state summary
// every summaryInterval.
func NewScheduler(
	s store.Store,
	items []domain.TrackedItem,
	summaryInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	sched := &Scheduler{
		cron:  c,
		store: s,
		items: items,
		log:   log,
	}

	if _, err := c.AddFunc(
		"@every "+summaryInterval.String(),
		sched.runSummary,
	); err != nil {
		return nil, err
	}

	return sched, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runSummary() {
	ctx := context.Background()

	state, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error("state summary failed", "error", err)
		return
	}

	counts := map[domain.Status]int{}
	var oldest time.Time
	for _, snap := range state {
		counts[snap.Status]++
		if oldest.IsZero() || snap.ObservedAt.Before(oldest) {
			oldest = snap.ObservedAt
		}
	}

	var stalest time.Duration
	if !oldest.IsZero() {
		stalest = time.Since(oldest).Round(time.Second)
	}

	s.log.Info("state summary",
		"tracked", len(s.items),
		"observed", len(state),
		"in_stock", counts[domain.StatusInStock],
		"out_of_stock", counts[domain.StatusOutOfStock],
		"unknown", counts[domain.StatusUnknown],
		"stalest_observation", stalest,
	)
}
