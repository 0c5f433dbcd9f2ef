package engine

import (
	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// Notification reasons, in the order they are evaluated.
const (
	ReasonBecameInStock = "became_in_stock"
	ReasonPriceDrop     = "price_drop"
	ReasonBelowTarget   = "below_target"
)

// Decision is the outcome of comparing one poll's snapshot to the previous
// observation. Event is non-nil exactly when Notify is true.
type Decision struct {
	Notify bool
	Event  *domain.NotificationEvent
}

// Decide compares the current snapshot to the previously persisted one and
// decides whether a notification fires. It is a pure function: persistence
// and delivery are the caller's concern, and persistence happens regardless
// of the outcome here.
//
// A nil prev means the item has never been observed and is treated as an
// UNKNOWN baseline, so the first-ever IN_STOCK observation notifies.
//
// The predicates are independent and OR-ed; when several fire at once a
// single combined event carries all of their reasons, so one poll produces
// at most one notification.
func Decide(prev *domain.StoredSnapshot, curr domain.ProductSnapshot, item domain.TrackedItem) Decision {
	base := domain.Baseline()
	if prev != nil {
		base = *prev
	}

	var reasons []string

	if base.Status != domain.StatusInStock && curr.Status == domain.StatusInStock {
		reasons = append(reasons, ReasonBecameInStock)
	}

	if base.Price != nil && curr.Price != nil && *curr.Price < *base.Price {
		reasons = append(reasons, ReasonPriceDrop)
	}

	if item.TargetPrice != nil && curr.Price != nil && *curr.Price <= *item.TargetPrice {
		reasons = append(reasons, ReasonBelowTarget)
	}

	if len(reasons) == 0 {
		return Decision{}
	}

	title := item.DisplayName()
	if curr.Title != nil {
		title = *curr.Title
	}

	return Decision{
		Notify: true,
		Event: &domain.NotificationEvent{
			ItemID:    item.ID,
			Title:     title,
			Status:    curr.Status,
			Price:     curr.Price,
			StockHint: curr.StockHint,
			URL:       item.URL,
			Reasons:   reasons,
		},
	}
}
