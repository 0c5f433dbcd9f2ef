// Package watchlist loads the tracked-item list. An empty or malformed
// watchlist is a startup error: the process must not come up polling
// nothing.
package watchlist

import (
	"encoding/json"
	"fmt"
	"os"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// Load reads and validates the watchlist file: an ordered JSON array of
// tracked items.
func Load(path string) ([]domain.TrackedItem, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from trusted config
	if err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}

	var items []domain.TrackedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing watchlist: %w", err)
	}

	if err := validate(items); err != nil {
		return nil, fmt.Errorf("validating watchlist: %w", err)
	}

	return items, nil
}

func validate(items []domain.TrackedItem) error {
	if len(items) == 0 {
		return fmt.Errorf("watchlist is empty")
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return fmt.Errorf("item %d: id is required", i)
		}
		if item.URL == "" {
			return fmt.Errorf("item %q: url is required", item.ID)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = struct{}{}

		if item.TargetPrice != nil && *item.TargetPrice <= 0 {
			return fmt.Errorf("item %q: targetPrice must be positive", item.ID)
		}
		if item.IntervalMinutes != nil && *item.IntervalMinutes <= 0 {
			return fmt.Errorf("item %q: intervalMinutes must be positive", item.ID)
		}
	}

	return nil
}
