package repository

import (
	"movie-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Tx         Transactor
	User       UserRepository
	Session    SessionRepository
	Showtime   ShowtimeRepository
	Seat       SeatRepository
	Hold       HoldRepository
	Booking    BookingRepository
	BookedSeat BookedSeatRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = NewTransactor(db, log)
	return repo
}

// newRepository binds every table repository to one executor, either the
// pool or an open transaction.
func newRepository(db database.DBTX, log *zap.Logger) *Repository {
	return &Repository{
		User:       NewUserRepository(db, log),
		Session:    NewSessionRepository(db, log),
		Showtime:   NewShowtimeRepository(db, log),
		Seat:       NewSeatRepository(db, log),
		Hold:       NewHoldRepository(db, log),
		Booking:    NewBookingRepository(db, log),
		BookedSeat: NewBookedSeatRepository(db, log),
	}
}
