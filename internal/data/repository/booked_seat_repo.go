package repository

import (
	"context"
	"fmt"

	"movie-booking/internal/data/entity"
	"movie-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookedSeatRepository interface {
	// CreateBatch reports entity.ErrSeatAlreadyBooked when any seat is already taken.
	CreateBatch(ctx context.Context, bookedSeats []*entity.BookedSeat) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookedSeat, error)
	FindSeatIDsByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error)
	FindBookedAmong(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error)
}

type bookedSeatRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewBookedSeatRepository(db database.DBTX, log *zap.Logger) BookedSeatRepository {
	return &bookedSeatRepository{
		db:  db,
		log: log.With(zap.String("repository", "booked_seat")),
	}
}

func (r *bookedSeatRepository) CreateBatch(ctx context.Context, bookedSeats []*entity.BookedSeat) error {
	if len(bookedSeats) == 0 {
		return nil
	}

	query := `INSERT INTO booked_seats (id, booking_id, seat_id, showtime_id, created_at) VALUES `
	args := make([]any, 0, len(bookedSeats)*5)

	for i, bs := range bookedSeats {
		if i > 0 {
			query += ", "
		}
		n := i * 5
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, bs.ID, bs.BookingID, bs.SeatID, bs.ShowtimeID, bs.CreatedAt)
	}

	bookingID := bookedSeats[0].BookingID.String()

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			r.log.Info("Booked seat insert hit uniqueness constraint",
				zap.String("booking_id", bookingID),
			)
			return fmt.Errorf("insert booked seats for booking %s: %w", bookingID, entity.ErrSeatAlreadyBooked)
		}
		r.log.Error("Failed to create booked seats",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.Int("count", len(bookedSeats)),
		)
		return fmt.Errorf("create booked seats for booking %s: %w", bookingID, err)
	}

	return nil
}

func (r *bookedSeatRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookedSeat, error) {
	query := `
		SELECT id, booking_id, seat_id, showtime_id, created_at
		FROM booked_seats
		WHERE booking_id = $1
		ORDER BY created_at, seat_id
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booked seats by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find booked seats for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	bookedSeats := make([]*entity.BookedSeat, 0)
	for rows.Next() {
		var bs entity.BookedSeat
		if err := rows.Scan(&bs.ID, &bs.BookingID, &bs.SeatID, &bs.ShowtimeID, &bs.CreatedAt); err != nil {
			r.log.Error("Failed to scan booked seat row", zap.Error(err))
			return nil, fmt.Errorf("scan booked seat: %w", err)
		}
		bookedSeats = append(bookedSeats, &bs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find booked seats for booking %s: %w", bookingID.String(), err)
	}

	return bookedSeats, nil
}

func (r *bookedSeatRepository) FindSeatIDsByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT seat_id FROM booked_seats WHERE showtime_id = $1`
	return r.seatIDs(ctx, query, showtimeID)
}

func (r *bookedSeatRepository) FindBookedAmong(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(seatIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	query := `SELECT seat_id FROM booked_seats WHERE showtime_id = $1 AND seat_id = ANY($2::uuid[])`
	return r.seatIDs(ctx, query, showtimeID, seatIDs)
}

func (r *bookedSeatRepository) seatIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find booked seat IDs", zap.Error(err))
		return nil, fmt.Errorf("find booked seat IDs: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booked seat ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find booked seat IDs: %w", err)
	}

	return ids, nil
}
