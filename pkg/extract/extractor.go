// Package extract turns a rendered product page into a normalized
// ProductSnapshot by reconciling three independent evidence sources:
// structured product markup (JSON-LD), embedded application-state JSON, and
// the rendered DOM itself. Sources are consulted in that fixed priority
// order and merged first-non-null-wins: a value set by a higher-priority
// source is never overwritten by a lower one.
//
// Extraction never fails. A parse error in any single source contributes no
// data from that source and the remaining sources are still consulted; a
// page that yields nothing produces an all-unset snapshot with UNKNOWN
// status.
package extract

import (
	"strings"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// evidence is the partial snapshot one source contributes. Nil means the
// source had no opinion on the field, which keeps the merge well-typed
// instead of coalescing zero values.
type evidence struct {
	availability  *string
	price         *float64
	title         *string
	stockHint     *int
	buySignal     bool
	soldOutSignal bool
}

// merge copies fields from lower-priority src into e, only where e is still
// unset. Boolean DOM signals are OR-ed since they are presence flags.
func (e *evidence) merge(src evidence) {
	if e.availability == nil {
		e.availability = src.availability
	}
	if e.price == nil {
		e.price = src.price
	}
	if e.title == nil {
		e.title = src.title
	}
	if e.stockHint == nil {
		e.stockHint = src.stockHint
	}
	e.buySignal = e.buySignal || src.buySignal
	e.soldOutSignal = e.soldOutSignal || src.soldOutSignal
}

// Extract produces a snapshot from one rendered page view.
func Extract(page *domain.RenderedPage) domain.ProductSnapshot {
	if page == nil {
		return domain.ProductSnapshot{Status: domain.StatusUnknown}
	}

	var ev evidence
	ev.merge(fromStructuredMarkup(page))
	ev.merge(fromEmbeddedJSON(page))
	ev.merge(fromRenderedText(page))

	snap := domain.ProductSnapshot{
		Status:    resolveStatus(ev),
		Price:     ev.price,
		Title:     ev.title,
		StockHint: ev.stockHint,
	}

	// Document title is the last-resort title source.
	if snap.Title == nil && page.DocumentTitle != "" {
		t := page.DocumentTitle
		snap.Title = &t
	}

	return snap
}

// resolveStatus maps the collected availability evidence to a status. An
// explicit availability string wins over DOM signals; the in-stock pattern
// is checked before the out-of-stock pattern.
func resolveStatus(ev evidence) domain.Status {
	if ev.availability != nil {
		switch {
		case matchesInStock(*ev.availability):
			return domain.StatusInStock
		case matchesOutOfStock(*ev.availability):
			return domain.StatusOutOfStock
		}
	}
	if ev.buySignal {
		return domain.StatusInStock
	}
	if ev.soldOutSignal {
		return domain.StatusOutOfStock
	}
	return domain.StatusUnknown
}

// matchesInStock reports whether an availability string denotes in-stock.
// Values are usually schema.org URIs ("https://schema.org/InStock") or bare
// tokens ("IN_STOCK", "InStock"), so matching is a case-insensitive suffix
// check after stripping separators.
func matchesInStock(availability string) bool {
	v := normalizeAvailability(availability)
	return strings.HasSuffix(v, "instock") || strings.HasSuffix(v, "limitedavailability")
}

// matchesOutOfStock reports whether an availability string denotes
// out-of-stock.
func matchesOutOfStock(availability string) bool {
	v := normalizeAvailability(availability)
	return strings.HasSuffix(v, "outofstock") ||
		strings.HasSuffix(v, "soldout") ||
		strings.HasSuffix(v, "discontinued")
}

func normalizeAvailability(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "")
	v = strings.ReplaceAll(v, "-", "")
	v = strings.ReplaceAll(v, " ", "")
	return v
}
