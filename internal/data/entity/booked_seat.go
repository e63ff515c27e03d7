package entity

import "github.com/google/uuid"

// BookedSeat is the permanent assignment of a seat to a paid booking.
type BookedSeat struct {
	BaseSimple
	BookingID  uuid.UUID `db:"booking_id"`
	SeatID     uuid.UUID `db:"seat_id"`
	ShowtimeID uuid.UUID `db:"showtime_id"`
}
