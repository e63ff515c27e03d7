package usecase

import (
	"context"
	"fmt"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/data/repository"
	"movie-booking/internal/dto/request"
	"movie-booking/internal/dto/response"
	"movie-booking/pkg/metrics"
	"movie-booking/pkg/scheduler"
	"movie-booking/pkg/utils"

	"go.uber.org/zap"
)

// MaintenanceService holds the housekeeping that keeps storage tidy. None of
// it is needed for correctness: expired holds are ignored by every read.
type MaintenanceService interface {
	SweepExpiredHolds(ctx context.Context) (int64, error)
	FailStalePendingBookings(ctx context.Context) (int64, error)
	RunAll(ctx context.Context) (*response.MaintenanceResponse, error)
	SetSeatActive(ctx context.Context, seatID string, req *request.SetSeatActiveRequest) (*response.SeatResponse, error)
	Jobs() []scheduler.Job
}

type maintenanceService struct {
	repo      *repository.Repository
	now       func() time.Time
	booking   utils.BookingConfig
	scheduler utils.SchedulerConfig
	timeout   time.Duration
	log       *zap.Logger
}

func NewMaintenanceService(repo *repository.Repository, now func() time.Time, config *utils.Config, timeout time.Duration, log *zap.Logger) MaintenanceService {
	return &maintenanceService{
		repo:      repo,
		now:       now,
		booking:   config.Booking,
		scheduler: config.Scheduler,
		timeout:   timeout,
		log:       log.With(zap.String("service", "maintenance")),
	}
}

func (s *maintenanceService) SweepExpiredHolds(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	swept, err := s.repo.Hold.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, transient(fmt.Errorf("sweep expired holds: %w", err))
	}

	if swept > 0 {
		metrics.HoldsExpired.Add(float64(swept))
		s.log.Info("Expired holds swept", zap.Int64("count", swept))
	}
	return swept, nil
}

// FailStalePendingBookings marks bookings whose payment never arrived as
// failed. A non-positive PendingBookingTTL disables it.
func (s *maintenanceService) FailStalePendingBookings(ctx context.Context) (int64, error) {
	if s.booking.PendingBookingTTL <= 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cutoff := s.now().Add(-s.booking.PendingBookingTTL)
	failed, err := s.repo.Booking.FailPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, transient(fmt.Errorf("fail stale bookings: %w", err))
	}

	if failed > 0 {
		metrics.StaleBookingsFailed.Add(float64(failed))
		s.log.Info("Stale pending bookings failed",
			zap.Int64("count", failed),
			zap.Time("cutoff", cutoff),
		)
	}
	return failed, nil
}

func (s *maintenanceService) RunAll(ctx context.Context) (*response.MaintenanceResponse, error) {
	swept, err := s.SweepExpiredHolds(ctx)
	if err != nil {
		return nil, err
	}

	failed, err := s.FailStalePendingBookings(ctx)
	if err != nil {
		return nil, err
	}

	return &response.MaintenanceResponse{
		ExpiredHolds:   swept,
		FailedBookings: failed,
	}, nil
}

// SetSeatActive takes a seat in or out of sale. Existing holds and bookings
// on the seat are left alone.
func (s *maintenanceService) SetSeatActive(ctx context.Context, seatIDStr string, req *request.SetSeatActiveRequest) (*response.SeatResponse, error) {
	seatID, err := parseID("seat", seatIDStr)
	if err != nil {
		return nil, err
	}
	if req.IsActive == nil {
		return nil, fmt.Errorf("is_active is required: %w", entity.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Seat.SetActive(ctx, seatID, *req.IsActive); err != nil {
		return nil, transient(err)
	}

	seat, err := s.repo.Seat.FindByID(ctx, seatID)
	if err != nil {
		return nil, transient(err)
	}
	if seat == nil {
		return nil, entity.NewNotFoundError("seat", seatID)
	}

	s.log.Info("Seat availability changed",
		zap.String("seat_id", seatID.String()),
		zap.String("seat_number", seat.SeatNumber),
		zap.Bool("is_active", seat.IsActive),
	)

	resp := response.SeatToResponse(seat)
	return &resp, nil
}

func (s *maintenanceService) Jobs() []scheduler.Job {
	jobs := []scheduler.Job{
		{
			Name:     "sweep-expired-holds",
			Interval: s.scheduler.SweepInterval,
			Timeout:  s.timeout,
			Run: func(ctx context.Context) error {
				_, err := s.SweepExpiredHolds(ctx)
				return err
			},
		},
	}

	if s.booking.PendingBookingTTL > 0 {
		jobs = append(jobs, scheduler.Job{
			Name:     "fail-stale-bookings",
			Interval: s.scheduler.ReconcileInterval,
			Timeout:  s.timeout,
			Run: func(ctx context.Context) error {
				_, err := s.FailStalePendingBookings(ctx)
				return err
			},
		})
	}

	return jobs
}
