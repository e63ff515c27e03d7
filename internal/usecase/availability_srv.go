package usecase

import (
	"context"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/data/repository"
	"movie-booking/internal/dto/response"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type AvailabilityService interface {
	GetSeatMap(ctx context.Context, userID uuid.UUID, showtimeID string) (*response.SeatMapResponse, error)
}

type availabilityService struct {
	repo    *repository.Repository
	now     func() time.Time
	timeout time.Duration
	log     *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, now func() time.Time, timeout time.Duration, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo:    repo,
		now:     now,
		timeout: timeout,
		log:     log.With(zap.String("service", "availability")),
	}
}

// GetSeatMap resolves every seat of the showtime's screen to booked, held or
// available, in that order of precedence.
func (s *availabilityService) GetSeatMap(ctx context.Context, userID uuid.UUID, showtimeIDStr string) (*response.SeatMapResponse, error) {
	showtimeID, err := parseID("showtime", showtimeIDStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	showtime, err := s.repo.Showtime.FindByID(ctx, showtimeID)
	if err != nil {
		return nil, transient(err)
	}
	if showtime == nil {
		return nil, entity.NewNotFoundError("showtime", showtimeID)
	}

	now := s.now()

	// Lazy sweep. Reads below filter on expiry anyway, so a failure here only
	// leaves garbage for the periodic sweeper.
	if swept, err := s.repo.Hold.DeleteExpiredByShowtime(ctx, showtimeID, now); err != nil {
		s.log.Warn("Lazy hold sweep failed", zap.String("showtime_id", showtimeID.String()), zap.Error(err))
	} else if swept > 0 {
		s.log.Debug("Swept expired holds", zap.String("showtime_id", showtimeID.String()), zap.Int64("count", swept))
	}

	seats, err := s.repo.Seat.FindByScreenID(ctx, showtime.ScreenID)
	if err != nil {
		return nil, transient(err)
	}

	holds, err := s.repo.Hold.FindActiveByShowtime(ctx, showtimeID, now)
	if err != nil {
		return nil, transient(err)
	}

	bookedIDs, err := s.repo.BookedSeat.FindSeatIDsByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, transient(err)
	}

	booked := lo.Associate(bookedIDs, func(id uuid.UUID) (uuid.UUID, struct{}) { return id, struct{}{} })
	heldBy := make(map[uuid.UUID]*entity.Hold, len(holds))
	for _, h := range holds {
		if h.ActiveAt(now) {
			heldBy[h.SeatID] = h
		}
	}

	result := &response.SeatMapResponse{
		ShowtimeID: showtimeID.String(),
		ScreenID:   showtime.ScreenID.String(),
		Seats:      make([]response.SeatStatusResponse, 0, len(seats)),
	}

	for _, seat := range seats {
		item := response.SeatStatusResponse{
			SeatResponse: response.SeatToResponse(seat),
			Status:       entity.SeatStatusAvailable,
		}

		if _, ok := booked[seat.ID]; ok {
			item.Status = entity.SeatStatusBooked
			result.Summary.Booked++
		} else if hold, ok := heldBy[seat.ID]; ok {
			item.Status = entity.SeatStatusHeld
			item.HeldByMe = hold.UserID == userID
			result.Summary.Held++

			if item.HeldByMe && (result.MyHoldExpiresAt == nil || hold.ExpiresAt.Before(*result.MyHoldExpiresAt)) {
				expiresAt := hold.ExpiresAt
				result.MyHoldExpiresAt = &expiresAt
			}
		} else {
			result.Summary.Available++
		}

		result.Seats = append(result.Seats, item)
	}

	return result, nil
}
