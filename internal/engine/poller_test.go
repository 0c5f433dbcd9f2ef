package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource returns a fixed page or error for every acquisition.
type fakeSource struct {
	mu    sync.Mutex
	page  *domain.RenderedPage
	err   error
	calls int
}

func (f *fakeSource) Acquire(_ context.Context, _ string) (*domain.RenderedPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

// fakeStore is an in-memory Store recording every Put.
type fakeStore struct {
	mu    sync.Mutex
	data  map[string]domain.StoredSnapshot
	puts  int
	fail  error
	pings int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]domain.StoredSnapshot{}}
}

func (f *fakeStore) Load(_ context.Context) (map[string]domain.StoredSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.StoredSnapshot, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.StoredSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.data[id]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (f *fakeStore) Put(_ context.Context, id string, snap domain.StoredSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.fail != nil {
		return f.fail
	}
	f.data[id] = snap
	return nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakeStore) Close() error { return nil }

// fakeNotifier records events, optionally failing every send.
type fakeNotifier struct {
	mu     sync.Mutex
	events []*domain.NotificationEvent
	err    error
}

func (f *fakeNotifier) Send(_ context.Context, event *domain.NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) sent() []*domain.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.NotificationEvent{}, f.events...)
}

// inStockPage renders as IN_STOCK at 49.99 with a title, via the
// structured-markup path.
func inStockPage() *domain.RenderedPage {
	return &domain.RenderedPage{
		FinalURL: "https://shop.example/p/widget/",
		JSONLD: []string{
			`{
				"@type": "Product",
				"name": "Widget Deluxe",
				"offers": {
					"availability": "https://schema.org/InStock",
					"price": "49.99"
				}
			}`,
		},
	}
}

func widgetItem() domain.TrackedItem {
	return domain.TrackedItem{
		ID:    "widget",
		URL:   "https://shop.example/p/widget/",
		Label: "Widget Deluxe",
	}
}

func TestEffectiveInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		intervalMinutes *int
		defaultInterval time.Duration
		want            time.Duration
	}{
		{
			name:            "default when item has no override",
			defaultInterval: 30 * time.Minute,
			want:            30 * time.Minute,
		},
		{
			name:            "item override wins",
			intervalMinutes: domain.Int(45),
			defaultInterval: 30 * time.Minute,
			want:            45 * time.Minute,
		},
		{
			name:            "item override clamped to floor",
			intervalMinutes: domain.Int(1),
			defaultInterval: 30 * time.Minute,
			want:            5 * time.Minute,
		},
		{
			name:            "default clamped to floor",
			defaultInterval: 2 * time.Minute,
			want:            5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			item := widgetItem()
			item.IntervalMinutes = tt.intervalMinutes
			assert.Equal(t, tt.want, EffectiveInterval(item, tt.defaultInterval))
		})
	}
}

func TestWithJitter(t *testing.T) {
	t.Parallel()

	interval := 10 * time.Minute
	jitter := 45 * time.Second

	t.Run("lower bound", func(t *testing.T) {
		t.Parallel()
		got := WithJitter(interval, jitter, func() float64 { return 0 })
		assert.Equal(t, interval, got)
	})

	t.Run("strictly below upper bound", func(t *testing.T) {
		t.Parallel()
		got := WithJitter(interval, jitter, func() float64 { return 0.999999 })
		assert.GreaterOrEqual(t, got, interval)
		assert.Less(t, got, interval+jitter)
	})

	t.Run("zero jitter", func(t *testing.T) {
		t.Parallel()
		got := WithJitter(interval, 0, func() float64 { return 0.5 })
		assert.Equal(t, interval, got)
	})
}

func TestPollItem_FirstObservationNotifiesAndPersists(t *testing.T) {
	t.Parallel()

	src := &fakeSource{page: inStockPage()}
	st := newFakeStore()
	nt := &fakeNotifier{}

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))
	p.PollItem(context.Background(), widgetItem())

	events := nt.sent()
	require.Len(t, events, 1)
	assert.Equal(t, "widget", events[0].ItemID)
	assert.Equal(t, domain.StatusInStock, events[0].Status)
	assert.Contains(t, events[0].Reasons, ReasonBecameInStock)

	stored, err := st.Get(context.Background(), "widget")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.StatusInStock, stored.Status)
	require.NotNil(t, stored.Price)
	assert.InDelta(t, 49.99, *stored.Price, 0.001)
	assert.False(t, stored.ObservedAt.IsZero())
}

func TestPollItem_AcquisitionFailureDegradesToUnknown(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: errors.New("navigation timed out")}
	st := newFakeStore()
	nt := &fakeNotifier{}

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))
	p.PollItem(context.Background(), widgetItem())

	assert.Empty(t, nt.sent())

	stored, err := st.Get(context.Background(), "widget")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.StatusUnknown, stored.Status)
	assert.Nil(t, stored.Price)
}

func TestPollItem_UnchangedStateIsQuietButStillPersisted(t *testing.T) {
	t.Parallel()

	src := &fakeSource{page: inStockPage()}
	st := newFakeStore()
	nt := &fakeNotifier{}

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))
	p.PollItem(context.Background(), widgetItem())
	p.PollItem(context.Background(), widgetItem())

	assert.Len(t, nt.sent(), 1, "only the first observation notifies")
	assert.Equal(t, 2, st.puts, "every poll persists")
}

func TestPollItem_NotificationFailureDoesNotBlockPersistence(t *testing.T) {
	t.Parallel()

	src := &fakeSource{page: inStockPage()}
	st := newFakeStore()
	nt := &fakeNotifier{err: errors.New("webhook returned 500")}

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))
	p.PollItem(context.Background(), widgetItem())

	stored, err := st.Get(context.Background(), "widget")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.StatusInStock, stored.Status)
}

func TestPollItem_StoreFailureDoesNotPanic(t *testing.T) {
	t.Parallel()

	src := &fakeSource{page: inStockPage()}
	st := newFakeStore()
	st.fail = errors.New("disk full")
	nt := &fakeNotifier{}

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))
	p.PollItem(context.Background(), widgetItem())

	assert.Len(t, nt.sent(), 1, "delivery happened before the failed write")
}

func TestRunPass_PollsEveryItem(t *testing.T) {
	t.Parallel()

	src := &fakeSource{page: inStockPage()}
	st := newFakeStore()
	nt := &fakeNotifier{}

	items := []domain.TrackedItem{
		{ID: "a", URL: "https://shop.example/p/a/"},
		{ID: "b", URL: "https://shop.example/p/b/"},
		{ID: "c", URL: "https://shop.example/p/c/"},
	}

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))
	require.NoError(t, p.RunPass(context.Background(), items))

	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 3, st.puts)
}

func TestRunPass_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	src := &fakeSource{page: inStockPage()}
	st := newFakeStore()
	nt := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))
	err := p.RunPass(ctx, []domain.TrackedItem{widgetItem()})

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls)
}

func TestRun_StopsOnCancellation(t *testing.T) {
	t.Parallel()

	src := &fakeSource{page: inStockPage()}
	st := newFakeStore()
	nt := &fakeNotifier{}

	p := NewPoller(src, st, nt, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, []domain.TrackedItem{widgetItem()})
		close(done)
	}()

	// Let the first cycle complete, then cancel mid-sleep.
	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return st.puts >= 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
