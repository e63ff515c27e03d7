package usecase

import (
	"context"
	"testing"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserBookings_PaginatesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	ctx := context.Background()

	var refs []string
	for _, seat := range []string{"A1", "A2", "A3"} {
		_, err := env.hold(t, alice, seat)
		require.NoError(t, err)
		created, err := env.createBooking(t, alice, 14.50, seat)
		require.NoError(t, err)
		refs = append(refs, created.Booking.BookingReference)
		env.clock.Advance(time.Minute)
	}

	// Someone else's booking never shows up
	_, err := env.hold(t, uuid.New(), "A4")
	require.NoError(t, err)

	page1, err := env.service.Booking.GetUserBookings(ctx, alice, &request.PaginatedRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page1.Pagination.Total)
	assert.Equal(t, 2, page1.Pagination.TotalPages)
	require.Len(t, page1.Data, 2)
	assert.Equal(t, refs[2], page1.Data[0].BookingReference)
	assert.Equal(t, refs[1], page1.Data[1].BookingReference)

	page2, err := env.service.Booking.GetUserBookings(ctx, alice, &request.PaginatedRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page2.Data, 1)
	assert.Equal(t, refs[0], page2.Data[0].BookingReference)

	empty, err := env.service.Booking.GetUserBookings(ctx, uuid.New(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)
}

func TestGetBooking_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	ctx := context.Background()

	_, err := env.hold(t, alice, "A1", "B1")
	require.NoError(t, err)
	created, err := env.createBooking(t, alice, 29.50, "A1", "B1")
	require.NoError(t, err)

	pending, err := env.service.Booking.GetBooking(ctx, alice, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, pending.Booking.PaymentStatus)
	assert.Empty(t, pending.BookedSeats)

	_, err = env.confirm(t, alice, created, "pay_1", "A1", "B1")
	require.NoError(t, err)

	paid, err := env.service.Booking.GetBooking(ctx, alice, created.Booking.ID)
	require.NoError(t, err)
	require.Len(t, paid.BookedSeats, 2)
	assert.Equal(t, "A1", paid.BookedSeats[0].SeatNumber)
	assert.Equal(t, "B1", paid.BookedSeats[1].SeatNumber)

	_, err = env.service.Booking.GetBooking(ctx, uuid.New(), created.Booking.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = env.service.Booking.GetBooking(ctx, alice, uuid.NewString())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
