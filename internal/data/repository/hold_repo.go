package repository

import (
	"context"
	"fmt"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HoldRepository owns seat_holds. Every read takes now explicitly so an
// expired row is never mistaken for a live claim, swept or not.
type HoldRepository interface {
	// Acquire inserts or takes over holds for seatIDs and returns the seat
	// ids the user now holds. A seat held by someone else with an unexpired
	// hold is left untouched and missing from the result.
	Acquire(ctx context.Context, userID, showtimeID uuid.UUID, seatIDs []uuid.UUID, now, expiresAt time.Time) ([]uuid.UUID, error)
	FindActiveByShowtime(ctx context.Context, showtimeID uuid.UUID, now time.Time) ([]*entity.Hold, error)
	// FindActiveByUser locks the returned rows when called inside a transaction.
	FindActiveByUser(ctx context.Context, userID, showtimeID uuid.UUID, now time.Time) ([]*entity.Hold, error)
	ReleaseExcept(ctx context.Context, userID, showtimeID uuid.UUID, keep []uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID, showtimeID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredByShowtime(ctx context.Context, showtimeID uuid.UUID, now time.Time) (int64, error)
}

type holdRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewHoldRepository(db database.DBTX, log *zap.Logger) HoldRepository {
	return &holdRepository{
		db:  db,
		log: log.With(zap.String("repository", "hold")),
	}
}

func (r *holdRepository) Acquire(ctx context.Context, userID, showtimeID uuid.UUID, seatIDs []uuid.UUID, now, expiresAt time.Time) ([]uuid.UUID, error) {
	if len(seatIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	// The conditional DO UPDATE is the whole exclusivity rule: take over a
	// row only when it has expired or already belongs to this user.
	query := `
		INSERT INTO seat_holds (id, user_id, showtime_id, seat_id, created_at, expires_at)
		SELECT gen_random_uuid(), $1, $2, seat_id, $3, $4
		FROM unnest($5::uuid[]) AS seat_id
		ON CONFLICT (showtime_id, seat_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE seat_holds.expires_at <= $3
		   OR seat_holds.user_id = EXCLUDED.user_id
		RETURNING seat_id
	`

	rows, err := r.db.Query(ctx, query, userID, showtimeID, now, expiresAt, seatIDs)
	if err != nil {
		r.log.Error("Failed to acquire holds",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("showtime_id", showtimeID.String()),
			zap.Int("seat_count", len(seatIDs)),
		)
		return nil, fmt.Errorf("acquire holds for showtime %s: %w", showtimeID.String(), err)
	}
	defer rows.Close()

	acquired := make([]uuid.UUID, 0, len(seatIDs))
	for rows.Next() {
		var seatID uuid.UUID
		if err := rows.Scan(&seatID); err != nil {
			return nil, fmt.Errorf("scan acquired seat: %w", err)
		}
		acquired = append(acquired, seatID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("acquire holds for showtime %s: %w", showtimeID.String(), err)
	}

	return acquired, nil
}

func (r *holdRepository) FindActiveByShowtime(ctx context.Context, showtimeID uuid.UUID, now time.Time) ([]*entity.Hold, error) {
	query := `
		SELECT id, user_id, showtime_id, seat_id, created_at, expires_at
		FROM seat_holds
		WHERE showtime_id = $1 AND expires_at > $2
	`

	return r.list(ctx, "find active holds by showtime", query, showtimeID, now)
}

func (r *holdRepository) FindActiveByUser(ctx context.Context, userID, showtimeID uuid.UUID, now time.Time) ([]*entity.Hold, error) {
	query := `
		SELECT id, user_id, showtime_id, seat_id, created_at, expires_at
		FROM seat_holds
		WHERE user_id = $1 AND showtime_id = $2 AND expires_at > $3
		ORDER BY seat_id
		FOR UPDATE
	`

	return r.list(ctx, "find active holds by user", query, userID, showtimeID, now)
}

func (r *holdRepository) ReleaseExcept(ctx context.Context, userID, showtimeID uuid.UUID, keep []uuid.UUID) (int64, error) {
	query := `
		DELETE FROM seat_holds
		WHERE user_id = $1 AND showtime_id = $2 AND NOT (seat_id = ANY($3::uuid[]))
	`

	if keep == nil {
		keep = []uuid.UUID{}
	}

	result, err := r.db.Exec(ctx, query, userID, showtimeID, keep)
	if err != nil {
		r.log.Error("Failed to release replaced holds",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("showtime_id", showtimeID.String()),
		)
		return 0, fmt.Errorf("release holds for showtime %s: %w", showtimeID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *holdRepository) DeleteByUser(ctx context.Context, userID, showtimeID uuid.UUID) (int64, error) {
	query := `DELETE FROM seat_holds WHERE user_id = $1 AND showtime_id = $2`

	result, err := r.db.Exec(ctx, query, userID, showtimeID)
	if err != nil {
		r.log.Error("Failed to delete user holds",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("showtime_id", showtimeID.String()),
		)
		return 0, fmt.Errorf("delete holds for showtime %s: %w", showtimeID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *holdRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM seat_holds WHERE expires_at <= $1`

	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		r.log.Error("Failed to delete expired holds", zap.Error(err))
		return 0, fmt.Errorf("delete expired holds: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *holdRepository) DeleteExpiredByShowtime(ctx context.Context, showtimeID uuid.UUID, now time.Time) (int64, error) {
	query := `DELETE FROM seat_holds WHERE showtime_id = $1 AND expires_at <= $2`

	result, err := r.db.Exec(ctx, query, showtimeID, now)
	if err != nil {
		r.log.Error("Failed to delete expired holds for showtime",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return 0, fmt.Errorf("delete expired holds for showtime %s: %w", showtimeID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *holdRepository) list(ctx context.Context, op, query string, args ...any) ([]*entity.Hold, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	holds := make([]*entity.Hold, 0)
	for rows.Next() {
		var hold entity.Hold
		if err := rows.Scan(
			&hold.ID,
			&hold.UserID,
			&hold.ShowtimeID,
			&hold.SeatID,
			&hold.CreatedAt,
			&hold.ExpiresAt,
		); err != nil {
			r.log.Error("Failed to scan hold row", zap.Error(err))
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, &hold)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return holds, nil
}
