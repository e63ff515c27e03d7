package usecase

import (
	"context"
	"testing"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/dto/response"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatStatuses(m *response.SeatMapResponse) map[string]response.SeatStatusResponse {
	return lo.KeyBy(m.Seats, func(s response.SeatStatusResponse) string { return s.SeatNumber })
}

func TestGetSeatMap_StatusPrecedence(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := uuid.New(), uuid.New()
	ctx := context.Background()

	// A1 booked by alice
	_, err := env.hold(t, alice, "A1")
	require.NoError(t, err)
	created, err := env.createBooking(t, alice, 14.50, "A1")
	require.NoError(t, err)
	_, err = env.confirm(t, alice, created, "pay_1", "A1")
	require.NoError(t, err)

	// A2 held by alice, A3 held by bob
	_, err = env.hold(t, alice, "A2")
	require.NoError(t, err)
	_, err = env.hold(t, bob, "A3")
	require.NoError(t, err)

	seatMap, err := env.service.Availability.GetSeatMap(ctx, alice, env.showtime.ID.String())
	require.NoError(t, err)

	assert.Equal(t, env.showtime.ID.String(), seatMap.ShowtimeID)
	assert.Len(t, seatMap.Seats, 5)

	byNumber := seatStatuses(seatMap)
	assert.Equal(t, entity.SeatStatusBooked, byNumber["A1"].Status)
	assert.Equal(t, entity.SeatStatusHeld, byNumber["A2"].Status)
	assert.True(t, byNumber["A2"].HeldByMe)
	assert.Equal(t, entity.SeatStatusHeld, byNumber["A3"].Status)
	assert.False(t, byNumber["A3"].HeldByMe)
	assert.Equal(t, entity.SeatStatusAvailable, byNumber["A4"].Status)
	assert.Equal(t, entity.SeatStatusAvailable, byNumber["B1"].Status)

	assert.Equal(t, response.SeatMapSummary{Available: 2, Held: 2, Booked: 1}, seatMap.Summary)
	require.NotNil(t, seatMap.MyHoldExpiresAt)
	assert.Equal(t, env.clock.Now().Add(10*time.Minute), *seatMap.MyHoldExpiresAt)
}

func TestGetSeatMap_ExpiredHoldsShowAvailable(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	ctx := context.Background()

	_, err := env.hold(t, alice, "A1", "A2")
	require.NoError(t, err)

	env.clock.Advance(10*time.Minute + time.Second)

	seatMap, err := env.service.Availability.GetSeatMap(ctx, uuid.New(), env.showtime.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, seatMap.Summary.Held)
	assert.Equal(t, 5, seatMap.Summary.Available)
	assert.Nil(t, seatMap.MyHoldExpiresAt)

	// Reading swept the stale rows
	assert.Equal(t, 0, env.store.holdCount())
}

func TestGetSeatMap_UnknownShowtime(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Availability.GetSeatMap(context.Background(), uuid.New(), uuid.NewString())
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = env.service.Availability.GetSeatMap(context.Background(), uuid.New(), "42")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}
