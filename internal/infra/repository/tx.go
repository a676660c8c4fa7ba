package repository

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"slot-reservation/internal/infra"
	"slot-reservation/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const txBackoffBase = 50 * time.Millisecond

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")

	// Returned from a tx body to roll back a write whose predicate did not hold. Never retried.
	errRejected = errs.New("predicate rejected")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txRunner runs a dual update in one transaction, retrying serialization failures and deadlocks.
type txRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
}

func newTxRunner(pool *pgxpool.Pool, maxRetries int) *txRunner {
	return &txRunner{pool: pool, maxRetries: max(maxRetries, 0)}
}

// within uses READ COMMITTED: each conditional UPDATE re-evaluates its WHERE clause against the
// latest committed row once it holds the row lock.
func (r *txRunner) within(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

	for attempt := 0; ; attempt++ {
		err := r.once(ctx, opts, fn)
		switch {
		case err == nil:
			return nil
		case !infra.IsRetryable(err):
			return err
		case attempt >= r.maxRetries:
			slog.Error("booking transaction gave up", slog.Int("attempts", attempt+1), slog.Any("error", err))
			return errs.Mark(err, errMaxRetriesExceeded)
		}

		wait := backoff(attempt)
		slog.Warn("retrying booking transaction",
			slog.Int("attempt", attempt+1), slog.Duration("wait", wait), slog.Any("error", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// once runs a single attempt. The transaction is always closed before returning.
func (r *txRunner) once(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return errs.Mark(err, errTransactionBegin)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errs.Is(rbErr, pgx.ErrTxClosed) {
			slog.Warn("rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, errTransactionCommit)
	}
	return nil
}

// backoff doubles per attempt with up to 20% jitter.
func backoff(attempt int) time.Duration {
	d := txBackoffBase << attempt
	return d + rand.N(d/5+1)
}
