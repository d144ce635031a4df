package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, b Beginner, fn func(pgx.Tx) error) error {
	return WithTxIso(ctx, b, pgx.RepeatableRead, fn)
}

// WithTxIso executes fn within a transaction at the given isolation level.
// Row-locking flows that bump shared counters use ReadCommitted so concurrent
// writers queue on the lock instead of failing with serialization errors.
func WithTxIso(ctx context.Context, b Beginner, iso pgx.TxIsoLevel, fn func(pgx.Tx) error) error {
	tx, err := b.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}
