package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHoldRepository_AcquireIsExclusiveUntilExpiry(t *testing.T) {
	repo := newTestRepository(t)
	fx := seedShowtime(t, repo, 3)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	now := time.Now().UTC()

	got, err := repo.Hold.Acquire(ctx, alice, fx.showtime.ID, seatIDs(fx.seats[0], fx.seats[1]), now, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.ElementsMatch(t, seatIDs(fx.seats[0], fx.seats[1]), got)

	got, err = repo.Hold.Acquire(ctx, bob, fx.showtime.ID, seatIDs(fx.seats[1], fx.seats[2]), now, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, seatIDs(fx.seats[2]), got)

	// Alice re-acquiring her own seat refreshes it
	later := now.Add(5 * time.Minute)
	got, err = repo.Hold.Acquire(ctx, alice, fx.showtime.ID, seatIDs(fx.seats[1]), later, later.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, seatIDs(fx.seats[1]), got)

	// Past expiry the seat can be taken over
	afterExpiry := later.Add(10 * time.Minute)
	got, err = repo.Hold.Acquire(ctx, bob, fx.showtime.ID, seatIDs(fx.seats[1]), afterExpiry, afterExpiry.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, seatIDs(fx.seats[1]), got)

	holds, err := repo.Hold.FindActiveByUser(ctx, bob, fx.showtime.ID, afterExpiry)
	require.NoError(t, err)
	assert.Len(t, holds, 1, "bob's first hold on seat 3 has expired too")
}

func TestHoldRepository_ConcurrentAcquireHasOneWinner(t *testing.T) {
	repo := newTestRepository(t)
	fx := seedShowtime(t, repo, 1)
	ctx := context.Background()
	now := time.Now().UTC()

	const contenders = 10
	results := make([][]uuid.UUID, contenders)
	errs := make([]error, contenders)

	// Losers may exhaust their retries; only the per-call error is recorded
	var g errgroup.Group
	for i := 0; i < contenders; i++ {
		g.Go(func() error {
			errs[i] = repo.Tx.WithinTx(ctx, func(tx *Repository) error {
				acquired, err := tx.Hold.Acquire(ctx, uuid.New(), fx.showtime.ID, seatIDs(fx.seats[0]), now, now.Add(10*time.Minute))
				results[i] = acquired
				return err
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	winners := 0
	for i := range results {
		if errs[i] != nil {
			continue
		}
		if len(results[i]) == 1 {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	holds, err := repo.Hold.FindActiveByShowtime(ctx, fx.showtime.ID, now)
	require.NoError(t, err)
	assert.Len(t, holds, 1)
}

func TestHoldRepository_ReleaseAndSweep(t *testing.T) {
	repo := newTestRepository(t)
	fx := seedShowtime(t, repo, 4)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	now := time.Now().UTC()

	_, err := repo.Hold.Acquire(ctx, alice, fx.showtime.ID, seatIDs(fx.seats[0], fx.seats[1], fx.seats[2]), now, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = repo.Hold.Acquire(ctx, bob, fx.showtime.ID, seatIDs(fx.seats[3]), now, now.Add(time.Hour))
	require.NoError(t, err)

	released, err := repo.Hold.ReleaseExcept(ctx, alice, fx.showtime.ID, seatIDs(fx.seats[1]))
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)

	swept, err := repo.Hold.DeleteExpiredByShowtime(ctx, fx.showtime.ID, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	active, err := repo.Hold.FindActiveByShowtime(ctx, fx.showtime.ID, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, bob, active[0].UserID)

	deleted, err := repo.Hold.DeleteByUser(ctx, bob, fx.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.Hold.DeleteByUser(ctx, bob, fx.showtime.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestHoldRepository_ExpiredRowsAreNotActive(t *testing.T) {
	repo := newTestRepository(t)
	fx := seedShowtime(t, repo, 1)
	ctx := context.Background()
	alice := uuid.New()
	now := time.Now().UTC()

	_, err := repo.Hold.Acquire(ctx, alice, fx.showtime.ID, seatIDs(fx.seats[0]), now, now.Add(time.Minute))
	require.NoError(t, err)

	// Unswept but expired, exactly at the boundary
	holds, err := repo.Hold.FindActiveByUser(ctx, alice, fx.showtime.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, holds)
}
