// Package store defines the state-store abstraction for shelfwatch. The
// polling loops depend on the Store interface, never on a concrete backend.
//
// Every item owns exactly one key, and Put updates exactly one key, so
// concurrent item loops never race on each other's records. How a backend
// makes that safe is its own concern: the file backend serializes all
// writes through one lock, the Postgres backend relies on per-row UPSERT.
package store

import (
	"context"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// Store persists the last-known snapshot per tracked item.
type Store interface {
	// Load returns the full persisted mapping. A backend with no data
	// yet returns an empty map, not an error.
	Load(ctx context.Context) (map[string]domain.StoredSnapshot, error)

	// Get returns the stored snapshot for one item, or nil when the item
	// has never been observed.
	Get(ctx context.Context, id string) (*domain.StoredSnapshot, error)

	// Put atomically replaces the record for one item.
	Put(ctx context.Context, id string, snap domain.StoredSnapshot) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
