package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	defaultTxAttempts = 5
)

// Transactor runs fn inside one serializable transaction. fn receives a
// Repository bound to that transaction and may be invoked more than once
// when Postgres reports a serialization failure, so it must not have side
// effects outside the database.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

type pgTransactor struct {
	db          database.PgxIface
	log         *zap.Logger
	maxAttempts int
}

func NewTransactor(db database.PgxIface, log *zap.Logger) Transactor {
	return &pgTransactor{
		db:          db,
		log:         log.With(zap.String("repository", "tx")),
		maxAttempts: defaultTxAttempts,
	}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}

		t.log.Warn("Transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", entity.ErrTransient, ctx.Err())
		case <-time.After(retryDelay(attempt)):
		}
	}

	return fmt.Errorf("%w: transaction retries exhausted: %w", entity.ErrTransient, err)
}

func (t *pgTransactor) runOnce(ctx context.Context, fn func(tx *Repository) error) (err error) {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	repo := newRepository(tx, t.log)
	repo.Tx = txScope{repo: repo}

	if err = fn(repo); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// txScope joins the surrounding transaction instead of opening a new one.
type txScope struct {
	repo *Repository
}

func (s txScope) WithinTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(s.repo)
}

// retryDelay grows quadratically from 10ms and adds up to half again as
// jitter so that losers of one conflict do not collide on the next attempt.
func retryDelay(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * 10 * time.Millisecond
	return base + rand.N(base/2+1)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
