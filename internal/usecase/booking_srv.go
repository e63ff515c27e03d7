package usecase

import (
	"context"
	"fmt"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/data/repository"
	"movie-booking/internal/dto/request"
	"movie-booking/internal/dto/response"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type BookingService interface {
	// Butuh auth, user hanya bisa lihat booking miliknya sendiri
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingDetailResponse, error)
}

type bookingService struct {
	repo    *repository.Repository
	timeout time.Duration
	log     *zap.Logger
}

func NewBookingService(repo *repository.Repository, timeout time.Duration, log *zap.Logger) BookingService {
	return &bookingService{
		repo:    repo,
		timeout: timeout,
		log:     log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("page", req.Page),
			zap.Int("per_page", limit),
		)
		return nil, transient(fmt.Errorf("get user bookings: %w", err))
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, transient(fmt.Errorf("count user bookings: %w", err))
	}

	bookingResponses := lo.Map(bookings, func(b *entity.Booking, _ int) response.BookingResponse {
		return response.BookingToResponse(b)
	})

	s.log.Debug("User bookings retrieved",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(bookings)),
		zap.Int64("total", total),
	)

	return response.NewPaginatedResponse(bookingResponses, max(req.Page, 1), limit, total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID uuid.UUID, bookingIDStr string) (*response.BookingDetailResponse, error) {
	bookingID, err := parseID("booking", bookingIDStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, transient(err)
	}
	// Someone else's booking looks exactly like a missing one
	if booking == nil || booking.UserID != userID {
		return nil, entity.NewNotFoundError("booking", bookingID)
	}

	detail, err := buildBookingDetail(ctx, s.repo, booking)
	if err != nil {
		return nil, transient(err)
	}
	return detail, nil
}

// buildBookingDetail joins a booking with its booked seats. Pending bookings
// have none yet.
func buildBookingDetail(ctx context.Context, repo *repository.Repository, booking *entity.Booking) (*response.BookingDetailResponse, error) {
	bookedSeats, err := repo.BookedSeat.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("get booked seats of %s: %w", booking.BookingReference, err)
	}

	seatIDs := lo.Map(bookedSeats, func(bs *entity.BookedSeat, _ int) uuid.UUID { return bs.SeatID })

	seats := []*entity.Seat{}
	if len(seatIDs) > 0 {
		seats, err = repo.Seat.FindByIDs(ctx, seatIDs)
		if err != nil {
			return nil, fmt.Errorf("get seats of %s: %w", booking.BookingReference, err)
		}
	}

	return &response.BookingDetailResponse{
		Booking: response.BookingToResponse(booking),
		BookedSeats: lo.Map(seats, func(seat *entity.Seat, _ int) response.SeatResponse {
			return response.SeatToResponse(seat)
		}),
	}, nil
}
