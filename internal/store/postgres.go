package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

const defaultPoolSize = 4

// PostgresStore implements Store using pgxpool. Each item maps to one row,
// and Put is a single-row UPSERT, which gives the per-key atomic update
// semantics the concurrent item loops rely on.
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Load returns the full persisted mapping.
func (s *PostgresStore) Load(ctx context.Context) (map[string]domain.StoredSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id, status, price, stock_hint, observed_at
		FROM item_state
	`)
	if err != nil {
		return nil, fmt.Errorf("querying item state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.StoredSnapshot)
	for rows.Next() {
		var (
			id   string
			snap domain.StoredSnapshot
		)
		if err := rows.Scan(&id, &snap.Status, &snap.Price, &snap.StockHint, &snap.ObservedAt); err != nil {
			return nil, fmt.Errorf("scanning item state: %w", err)
		}
		out[id] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading item state: %w", err)
	}

	return out, nil
}

// Get returns one item's record, or nil when the item has no row.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.StoredSnapshot, error) {
	var snap domain.StoredSnapshot
	err := s.pool.QueryRow(ctx, `
		SELECT status, price, stock_hint, observed_at
		FROM item_state
		WHERE item_id = $1
	`, id).Scan(&snap.Status, &snap.Price, &snap.StockHint, &snap.ObservedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item %s: %w", id, err)
	}

	return &snap, nil
}

// Put upserts one item's record.
func (s *PostgresStore) Put(ctx context.Context, id string, snap domain.StoredSnapshot) error {
	args := pgx.NamedArgs{
		"item_id":     id,
		"status":      string(snap.Status),
		"price":       snap.Price,
		"stock_hint":  snap.StockHint,
		"observed_at": snap.ObservedAt,
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO item_state (item_id, status, price, stock_hint, observed_at)
		VALUES (@item_id, @status, @price, @stock_hint, @observed_at)
		ON CONFLICT (item_id) DO UPDATE SET
			status      = EXCLUDED.status,
			price       = EXCLUDED.price,
			stock_hint  = EXCLUDED.stock_hint,
			observed_at = EXCLUDED.observed_at
	`, args)
	if err != nil {
		return fmt.Errorf("upserting item %s: %w", id, err)
	}

	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
