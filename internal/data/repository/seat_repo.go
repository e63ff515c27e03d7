package repository

import (
	"context"
	"errors"
	"fmt"

	"movie-booking/internal/data/entity"
	"movie-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error)
	FindByScreenID(ctx context.Context, screenID uuid.UUID) ([]*entity.Seat, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error
}

type seatRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewSeatRepository(db database.DBTX, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, screen_id, row_label, column_index, seat_number, seat_class, price, is_active, created_at, updated_at`

func scanSeat(row pgx.Row) (*entity.Seat, error) {
	var seat entity.Seat
	err := row.Scan(
		&seat.ID,
		&seat.ScreenID,
		&seat.RowLabel,
		&seat.ColumnIndex,
		&seat.SeatNumber,
		&seat.SeatClass,
		&seat.Price,
		&seat.IsActive,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// Build batch insert
	query := `INSERT INTO seats (` + seatColumns + `) VALUES `
	args := make([]any, 0, len(seats)*10)

	for i, seat := range seats {
		if i > 0 {
			query += ", "
		}
		n := i * 10
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9, n+10)

		args = append(args,
			seat.ID,
			seat.ScreenID,
			seat.RowLabel,
			seat.ColumnIndex,
			seat.SeatNumber,
			seat.SeatClass,
			seat.Price,
			seat.IsActive,
			seat.CreatedAt,
			seat.UpdatedAt,
		)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.log.Error("Failed to create batch seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create batch seats: %w", err)
	}

	return nil
}

func (r *seatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	seat, err := scanSeat(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat by ID",
			zap.Error(err),
			zap.String("seat_id", id.String()),
		)
		return nil, fmt.Errorf("find seat %s: %w", id.String(), err)
	}

	return seat, nil
}

// FindByIDs returns the seats that exist among ids. Missing ids are simply absent.
func (r *seatRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	if len(ids) == 0 {
		return []*entity.Seat{}, nil
	}

	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = ANY($1) ORDER BY row_label, column_index`

	return r.list(ctx, "find seats by IDs", query, ids)
}

func (r *seatRepository) FindByScreenID(ctx context.Context, screenID uuid.UUID) ([]*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE screen_id = $1 ORDER BY row_label, column_index`

	return r.list(ctx, "find seats by screen", query, screenID)
}

func (r *seatRepository) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	query := `UPDATE seats SET is_active = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, isActive)
	if err != nil {
		r.log.Error("Failed to update seat active flag",
			zap.Error(err),
			zap.String("seat_id", id.String()),
			zap.Bool("is_active", isActive),
		)
		return fmt.Errorf("update seat %s active flag: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return entity.NewNotFoundError("seat", id)
	}

	return nil
}

func (r *seatRepository) list(ctx context.Context, op, query string, args ...any) ([]*entity.Seat, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	seats := make([]*entity.Seat, 0)
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seats, nil
}
