// Package domain defines the core business types for shelfwatch.
package domain

import "time"

// Status is the normalized availability of a product at one observation.
type Status string

// Availability constants.
const (
	StatusInStock    Status = "IN_STOCK"
	StatusOutOfStock Status = "OUT_OF_STOCK"
	StatusUnknown    Status = "UNKNOWN"
)

// TrackedItem is one watched product. Items come from the watchlist file at
// startup and are immutable for the process lifetime.
type TrackedItem struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	Label           string   `json:"label,omitempty"`
	IntervalMinutes *int     `json:"intervalMinutes,omitempty"`
	TargetPrice     *float64 `json:"targetPrice,omitempty"`
}

// DisplayName returns the friendliest identifier available for the item.
func (t *TrackedItem) DisplayName() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID
}

// ScriptBlock is one <script> element captured from a rendered page.
// Type holds the element's type attribute verbatim ("" when absent).
type ScriptBlock struct {
	Type string
	Body string
}

// RenderedPage is the view of one loaded product page handed to the
// extraction engine. It is produced per poll attempt, owned by a single
// extraction call, and discarded afterwards.
type RenderedPage struct {
	// FinalURL is the URL the navigation actually resolved to.
	FinalURL string

	// DocumentTitle is the page <title> text.
	DocumentTitle string

	// JSONLD holds the bodies of all application/ld+json scripts, in
	// document order.
	JSONLD []string

	// HydrationJSON is the well-known single embedded application-state
	// blob when the page exposes one ("" when absent).
	HydrationJSON string

	// Scripts holds every other script block, used by the heuristic
	// embedded-JSON scan.
	Scripts []ScriptBlock

	// DOM signal predicates.
	HasBuyControl     bool
	HasOutOfStockText bool

	// PriceTexts holds the text content of likely price-container
	// elements, in document order.
	PriceTexts []string

	// BodyText is the page's visible body text.
	BodyText string
}

// ProductSnapshot is the normalized result of one extraction pass.
// Nil pointer fields mean the value was not observed; they are never zero.
type ProductSnapshot struct {
	Status    Status   `json:"status"`
	Price     *float64 `json:"price"`
	Title     *string  `json:"title"`
	StockHint *int     `json:"stockHint"`
}

// StoredSnapshot is the persisted per-item record: the last snapshot's
// tracked fields plus the observation timestamp.
type StoredSnapshot struct {
	Status     Status    `json:"status"`
	Price      *float64  `json:"price,omitempty"`
	StockHint  *int      `json:"stockHint,omitempty"`
	ObservedAt time.Time `json:"ts"`
}

// Baseline is the comparison record used when an item has never been
// observed: UNKNOWN status with no price and no stock hint.
func Baseline() StoredSnapshot {
	return StoredSnapshot{Status: StatusUnknown}
}

// NotificationEvent is a transient user-visible event, constructed only when
// the decider fires and consumed exactly once by the notification sink.
type NotificationEvent struct {
	ItemID    string
	Title     string
	Status    Status
	Price     *float64
	StockHint *int
	URL       string
	Reasons   []string
}

// Float64 returns a pointer to v. Convenience for literal snapshots.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
