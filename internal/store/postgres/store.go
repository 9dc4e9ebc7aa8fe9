// Package postgres implements the campus [store.Store] on PostgreSQL using
// pgx connection pooling.
//
// All campus data is read-only from the chat core's perspective; the
// ingestion side (enrolment sync, material upload pipeline) lives outside
// this service and shares the schema created by [Migrate].
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbuddy/campusbuddy/internal/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is the PostgreSQL-backed campus store. It holds a single
// [pgxpool.Pool]; all methods are safe for concurrent use.
//
// The zero value is not usable; create instances with [New].
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store, establishes a connection pool to the database at dsn,
// and runs [Migrate] to ensure all required tables exist.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Ping checks database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
