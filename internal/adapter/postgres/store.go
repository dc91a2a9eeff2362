package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nourx/nourx/internal/port/database"
)

// querier is the subset of pgx shared by the pool and a transaction, so
// every query method works in both scopes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements every read and write against a querier. Store runs
// them on the pool; txStore runs them on a transaction.
type queries struct {
	q querier
}

// Store is the pgx-backed implementation of the database port.
type Store struct {
	pool *pgxpool.Pool
	queries
}

var _ database.Store = (*Store)(nil)

// NewStore creates a Store on top of an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, queries: queries{q: pool}}
}

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error. Audit appends ride the same transaction as the mutation they
// describe.
func (s *Store) WithTx(ctx context.Context, fn func(tx database.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&txStore{queries{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// txStore exposes the query set bound to one transaction.
type txStore struct {
	queries
}

var _ database.Tx = (*txStore)(nil)
