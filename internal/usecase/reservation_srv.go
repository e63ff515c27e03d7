package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/data/repository"
	"movie-booking/internal/dto/request"
	"movie-booking/internal/dto/response"
	"movie-booking/internal/event"
	"movie-booking/internal/gateway"
	"movie-booking/pkg/metrics"
	"movie-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ReservationService drives a user's seat selection through
// hold -> pending booking -> verified payment -> booked seats.
// No state lives in memory; every step re-derives it from storage.
type ReservationService interface {
	RequestHold(ctx context.Context, userID uuid.UUID, req *request.HoldSeatsRequest) (*response.HoldResponse, error)
	ReleaseHold(ctx context.Context, userID uuid.UUID, showtimeID string) error
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingCreatedResponse, error)
	RetryPaymentOrder(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingCreatedResponse, error)
	ConfirmPayment(ctx context.Context, userID uuid.UUID, req *request.VerifyPaymentRequest) (*response.BookingDetailResponse, error)
}

type reservationService struct {
	repo      *repository.Repository
	gateway   gateway.PaymentGateway
	publisher event.Publisher
	notifier  event.Notifier
	now       func() time.Time
	cfg       utils.BookingConfig
	currency  string
	timeout   time.Duration
	log       *zap.Logger
}

func NewReservationService(repo *repository.Repository, deps Dependencies, config *utils.Config, timeout time.Duration, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:      repo,
		gateway:   deps.Gateway,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		now:       deps.Now,
		cfg:       config.Booking,
		currency:  config.Payment.Currency,
		timeout:   timeout,
		log:       log.With(zap.String("service", "reservation")),
	}
}

// ==================== HOLDS ====================

func (s *reservationService) RequestHold(ctx context.Context, userID uuid.UUID, req *request.HoldSeatsRequest) (*response.HoldResponse, error) {
	showtimeID, err := parseID("showtime", req.ShowtimeID)
	if err != nil {
		return nil, err
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	if err := s.checkSeatCount(seatIDs); err != nil {
		metrics.HoldRequests.WithLabelValues("rejected").Inc()
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, seats, err := s.loadHoldableSeats(dbCtx, showtimeID, seatIDs)
	if err != nil {
		metrics.HoldRequests.WithLabelValues("rejected").Inc()
		return nil, transient(err)
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.HoldTTL)

	// Outside the transaction: a showtime-wide delete there turns every pair
	// of concurrent holds into a serialization conflict. Acquire takes over
	// expired rows on its own.
	if _, err := s.repo.Hold.DeleteExpiredByShowtime(dbCtx, showtimeID, now); err != nil {
		return nil, transient(err)
	}

	err = s.repo.Tx.WithinTx(dbCtx, func(tx *repository.Repository) error {
		booked, err := tx.BookedSeat.FindBookedAmong(dbCtx, showtimeID, seatIDs)
		if err != nil {
			return err
		}
		if len(booked) > 0 {
			return entity.NewSeatError(entity.ErrSeatUnavailable, booked)
		}

		// Re-selection replaces: drop whatever this user held that is not in the new set.
		if _, err := tx.Hold.ReleaseExcept(dbCtx, userID, showtimeID, seatIDs); err != nil {
			return err
		}

		acquired, err := tx.Hold.Acquire(dbCtx, userID, showtimeID, seatIDs, now, expiresAt)
		if err != nil {
			return err
		}
		if taken := lo.Without(seatIDs, acquired...); len(taken) > 0 {
			return entity.NewSeatError(entity.ErrSeatUnavailable, taken)
		}

		return nil
	})
	if err != nil {
		s.logOutcome("Seat hold", err,
			zap.String("user_id", userID.String()),
			zap.String("showtime_id", showtimeID.String()),
		)
		metrics.HoldRequests.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, transient(fmt.Errorf("hold seats for showtime %s: %w", showtimeID, err))
	}

	metrics.HoldRequests.WithLabelValues("ok").Inc()
	s.log.Info("Seats held",
		zap.String("user_id", userID.String()),
		zap.String("showtime_id", showtimeID.String()),
		zap.Int("seat_count", len(seatIDs)),
		zap.Time("expires_at", expiresAt),
	)

	s.notify(ctx, showtimeID, event.ReasonHeld, seatIDs)

	return &response.HoldResponse{
		ShowtimeID:  showtimeID.String(),
		HeldSeats:   lo.Map(seats, func(seat *entity.Seat, _ int) response.SeatResponse { return response.SeatToResponse(seat) }),
		ExpiresAt:   expiresAt,
		HoldSeconds: int(s.cfg.HoldTTL.Seconds()),
	}, nil
}

// ReleaseHold is idempotent: releasing nothing is still a success.
func (s *reservationService) ReleaseHold(ctx context.Context, userID uuid.UUID, showtimeIDStr string) error {
	showtimeID, err := parseID("showtime", showtimeIDStr)
	if err != nil {
		return err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	released, err := s.repo.Hold.DeleteByUser(dbCtx, userID, showtimeID)
	if err != nil {
		return transient(err)
	}

	if released > 0 {
		s.log.Info("Holds released",
			zap.String("user_id", userID.String()),
			zap.String("showtime_id", showtimeID.String()),
			zap.Int64("count", released),
		)
		s.notify(ctx, showtimeID, event.ReasonReleased, nil)
	}

	return nil
}

// ==================== BOOKING & PAYMENT ====================

func (s *reservationService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingCreatedResponse, error) {
	showtimeID, err := parseID("showtime", req.ShowtimeID)
	if err != nil {
		return nil, err
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	if err := s.checkSeatCount(seatIDs); err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	showtime, err := s.repo.Showtime.FindByID(dbCtx, showtimeID)
	if err != nil {
		return nil, transient(err)
	}
	if showtime == nil {
		return nil, entity.NewNotFoundError("showtime", showtimeID)
	}

	now := s.now()

	holds, err := s.repo.Hold.FindActiveByUser(dbCtx, userID, showtimeID, now)
	if err != nil {
		return nil, transient(err)
	}
	if !sameSeatSet(entity.HoldSeatIDs(holds), seatIDs) {
		s.log.Info("Booking rejected, holds do not match selection",
			zap.String("user_id", userID.String()),
			zap.String("showtime_id", showtimeID.String()),
			zap.Int("held", len(holds)),
			zap.Int("requested", len(seatIDs)),
		)
		return nil, entity.NewSeatError(entity.ErrHoldMismatch, lo.Without(seatIDs, entity.HoldSeatIDs(holds)...))
	}

	totalAmount := req.TotalAmount
	if s.cfg.ValidateAmount {
		expected, err := s.expectedTotal(dbCtx, seatIDs, s.cfg.BookingFee)
		if err != nil {
			return nil, transient(err)
		}
		if utils.ToCents(req.TotalAmount) != expected {
			return nil, fmt.Errorf("got %.2f, expected %.2f: %w",
				req.TotalAmount, utils.FromCents(expected), entity.ErrAmountMismatch)
		}
		totalAmount = utils.FromCents(expected)
	}

	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:           userID,
		ShowtimeID:       showtimeID,
		BookingReference: utils.GenerateBookingReference(now),
		TotalAmount:      totalAmount,
		BookingFee:       s.cfg.BookingFee,
		SeatCount:        len(seatIDs),
		Currency:         s.currency,
		PaymentStatus:    entity.PaymentStatusPending,
		Status:           entity.BookingStatusConfirmed,
	}

	if err := s.repo.Booking.Create(dbCtx, booking); err != nil {
		return nil, transient(err)
	}

	s.log.Info("Pending booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_reference", booking.BookingReference),
		zap.String("user_id", userID.String()),
		zap.Int("seat_count", len(seatIDs)),
		zap.Float64("total_amount", totalAmount),
	)

	// Holds stay in place until payment is confirmed.
	result, err := s.issuePaymentOrder(ctx, booking)
	if err != nil {
		metrics.BookingsCreated.WithLabelValues("payment_init_failed").Inc()
		return nil, err
	}

	metrics.BookingsCreated.WithLabelValues("ok").Inc()
	return result, nil
}

func (s *reservationService) RetryPaymentOrder(ctx context.Context, userID uuid.UUID, bookingIDStr string) (*response.BookingCreatedResponse, error) {
	bookingID, err := parseID("booking", bookingIDStr)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	booking, err := s.repo.Booking.FindByID(dbCtx, bookingID)
	if err != nil {
		return nil, transient(err)
	}
	if booking == nil || booking.UserID != userID {
		return nil, entity.NewNotFoundError("booking", bookingID)
	}
	if booking.PaymentStatus != entity.PaymentStatusPending {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.BookingReference, booking.PaymentStatus, entity.ErrInvalidState)
	}

	return s.issuePaymentOrder(ctx, booking)
}

func (s *reservationService) ConfirmPayment(ctx context.Context, userID uuid.UUID, req *request.VerifyPaymentRequest) (*response.BookingDetailResponse, error) {
	bookingID, err := parseID("booking", req.BookingID)
	if err != nil {
		return nil, err
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	if err := s.checkSeatCount(seatIDs); err != nil {
		return nil, err
	}

	proof := req.PaymentProof

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	booking, err := s.repo.Booking.FindByID(dbCtx, bookingID)
	if err != nil {
		return nil, transient(err)
	}
	if booking == nil || booking.UserID != userID {
		return nil, entity.NewNotFoundError("booking", bookingID)
	}

	if booking.IsPaid() {
		return s.replayConfirmation(dbCtx, booking, proof.PaymentID)
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.BookingReference, booking.Status, entity.ErrInvalidState)
	}

	if booking.PaymentOrderID == nil || *booking.PaymentOrderID != proof.OrderID ||
		!s.gateway.VerifySignature(proof.OrderID, proof.PaymentID, proof.Signature) {
		metrics.PaymentConfirmations.WithLabelValues("verification_failed").Inc()
		s.log.Warn("Payment verification failed",
			zap.String("booking_id", booking.ID.String()),
			zap.String("order_id", proof.OrderID),
			zap.String("payment_id", proof.PaymentID),
		)
		return nil, fmt.Errorf("booking %s: %w", booking.BookingReference, entity.ErrPaymentVerificationFailed)
	}

	if booking.SeatCount > 0 && booking.SeatCount != len(seatIDs) {
		return nil, fmt.Errorf("booking %s was created for %d seats, got %d: %w",
			booking.BookingReference, booking.SeatCount, len(seatIDs), entity.ErrHoldMismatch)
	}

	// The paid amount was fixed when the order was created, with the fee in
	// force then; the seats being confirmed must add up to it.
	if s.cfg.ValidateAmount {
		expected, err := s.expectedTotal(dbCtx, seatIDs, booking.BookingFee)
		if err != nil {
			return nil, transient(err)
		}
		if expected != utils.ToCents(booking.TotalAmount) {
			return nil, fmt.Errorf("seats total %.2f, booking %.2f: %w",
				utils.FromCents(expected), booking.TotalAmount, entity.ErrAmountMismatch)
		}
	}

	now := s.now()
	var (
		bookedSeats []*entity.BookedSeat
		alreadyPaid bool
	)

	err = s.repo.Tx.WithinTx(dbCtx, func(tx *repository.Repository) error {
		alreadyPaid = false

		locked, err := tx.Booking.FindByIDForUpdate(dbCtx, booking.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return entity.NewNotFoundError("booking", booking.ID)
		}
		if locked.IsPaid() {
			alreadyPaid = true
			return nil
		}

		// Booked wins over expired: promotion deletes the holds, so a seat
		// booked by the user's own other booking also looks unheld.
		taken, err := tx.BookedSeat.FindBookedAmong(dbCtx, booking.ShowtimeID, seatIDs)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return entity.NewSeatError(entity.ErrSeatAlreadyBooked, taken)
		}

		holds, err := tx.Hold.FindActiveByUser(dbCtx, userID, booking.ShowtimeID, now)
		if err != nil {
			return err
		}
		held := entity.HoldSeatIDs(holds)
		if !sameSeatSet(held, seatIDs) {
			return entity.NewSeatError(entity.ErrHoldExpired, lo.Without(seatIDs, held...))
		}

		bookedSeats = lo.Map(seatIDs, func(seatID uuid.UUID, _ int) *entity.BookedSeat {
			return &entity.BookedSeat{
				BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
				BookingID:  booking.ID,
				SeatID:     seatID,
				ShowtimeID: booking.ShowtimeID,
			}
		})

		if err := tx.BookedSeat.CreateBatch(dbCtx, bookedSeats); err != nil {
			return err
		}
		if err := tx.Booking.MarkPaid(dbCtx, booking.ID, proof.PaymentID, now); err != nil {
			return err
		}
		if _, err := tx.Hold.DeleteByUser(dbCtx, userID, booking.ShowtimeID); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		s.logOutcome("Payment confirmation", err,
			zap.String("booking_id", booking.ID.String()),
			zap.String("user_id", userID.String()),
		)
		metrics.PaymentConfirmations.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, transient(fmt.Errorf("confirm booking %s: %w", booking.BookingReference, err))
	}

	if alreadyPaid {
		// A concurrent confirmation won; answer with its result.
		current, err := s.repo.Booking.FindByID(dbCtx, booking.ID)
		if err != nil {
			return nil, transient(err)
		}
		return s.replayConfirmation(dbCtx, current, proof.PaymentID)
	}

	paymentID := proof.PaymentID
	booking.PaymentStatus = entity.PaymentStatusCompleted
	booking.PaymentID = &paymentID
	booking.UpdatedAt = now

	metrics.PaymentConfirmations.WithLabelValues("ok").Inc()
	metrics.SeatsBooked.Add(float64(len(bookedSeats)))

	detail, err := buildBookingDetail(dbCtx, s.repo, booking)
	if err != nil {
		return nil, transient(err)
	}

	s.log.Info("Booking confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_reference", booking.BookingReference),
		zap.String("payment_id", paymentID),
		zap.Int("seat_count", len(bookedSeats)),
	)

	s.announceConfirmed(ctx, booking, detail)

	return detail, nil
}

// ==================== HELPERS ====================

func (s *reservationService) checkSeatCount(seatIDs []uuid.UUID) error {
	if len(seatIDs) == 0 || len(seatIDs) > s.cfg.MaxSeatsPerHold {
		return fmt.Errorf("%d seats requested, allowed 1 to %d: %w",
			len(seatIDs), s.cfg.MaxSeatsPerHold, entity.ErrLimitExceeded)
	}
	return nil
}

// loadHoldableSeats checks that every seat exists, is active and sits on the
// showtime's screen. Seats come back in request order.
func (s *reservationService) loadHoldableSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) (*entity.Showtime, []*entity.Seat, error) {
	showtime, err := s.repo.Showtime.FindByID(ctx, showtimeID)
	if err != nil {
		return nil, nil, err
	}
	if showtime == nil {
		return nil, nil, entity.NewNotFoundError("showtime", showtimeID)
	}

	seats, err := s.repo.Seat.FindByIDs(ctx, seatIDs)
	if err != nil {
		return nil, nil, err
	}

	byID := lo.KeyBy(seats, func(seat *entity.Seat) uuid.UUID { return seat.ID })
	invalid := lo.Filter(seatIDs, func(id uuid.UUID, _ int) bool {
		seat, ok := byID[id]
		return !ok || !seat.IsActive || seat.ScreenID != showtime.ScreenID
	})
	if len(invalid) > 0 {
		return nil, nil, entity.NewSeatError(entity.ErrInvalidSeat, invalid)
	}

	ordered := lo.Map(seatIDs, func(id uuid.UUID, _ int) *entity.Seat { return byID[id] })
	return showtime, ordered, nil
}

// expectedTotal is sum(seat prices) + fee, in cents.
func (s *reservationService) expectedTotal(ctx context.Context, seatIDs []uuid.UUID, fee float64) (int64, error) {
	seats, err := s.repo.Seat.FindByIDs(ctx, seatIDs)
	if err != nil {
		return 0, err
	}
	if len(seats) != len(seatIDs) {
		found := lo.Map(seats, func(seat *entity.Seat, _ int) uuid.UUID { return seat.ID })
		return 0, entity.NewSeatError(entity.ErrInvalidSeat, lo.Without(seatIDs, found...))
	}

	subtotal := lo.SumBy(seats, func(seat *entity.Seat) int64 { return utils.ToCents(seat.Price) })
	return subtotal + utils.ToCents(fee), nil
}

func (s *reservationService) issuePaymentOrder(ctx context.Context, booking *entity.Booking) (*response.BookingCreatedResponse, error) {
	order, err := s.gateway.CreateOrder(ctx, booking.TotalAmount, booking.Currency, booking.BookingReference)
	if err != nil {
		s.log.Error("Payment order failed, booking stays pending",
			zap.String("booking_id", booking.ID.String()),
			zap.String("booking_reference", booking.BookingReference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("booking %s: %w: %w", booking.BookingReference, entity.ErrPaymentInitFailed, err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Booking.SetPaymentOrder(dbCtx, booking.ID, order.ID); err != nil {
		return nil, transient(err)
	}

	orderID := order.ID
	booking.PaymentOrderID = &orderID

	return &response.BookingCreatedResponse{
		Booking: response.BookingToResponse(booking),
		PaymentOrder: response.PaymentOrderResponse{
			OrderID:  order.ID,
			Amount:   order.Amount,
			Currency: order.Currency,
			KeyID:    s.gateway.KeyID(),
		},
	}, nil
}

func (s *reservationService) replayConfirmation(ctx context.Context, booking *entity.Booking, paymentID string) (*response.BookingDetailResponse, error) {
	if booking.PaymentID != nil && *booking.PaymentID != paymentID {
		return nil, fmt.Errorf("booking %s already paid by another payment: %w", booking.BookingReference, entity.ErrInvalidState)
	}

	metrics.PaymentConfirmations.WithLabelValues("replayed").Inc()
	s.log.Info("Payment confirmation replayed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("payment_id", paymentID),
	)

	detail, err := buildBookingDetail(ctx, s.repo, booking)
	if err != nil {
		return nil, transient(err)
	}
	return detail, nil
}

// announceConfirmed runs after commit. Failures are logged, never returned:
// the booking is already durable.
func (s *reservationService) announceConfirmed(ctx context.Context, booking *entity.Booking, detail *response.BookingDetailResponse) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	seatIDs := lo.Map(detail.BookedSeats, func(seat response.SeatResponse, _ int) string { return seat.ID })

	evt := event.BookingConfirmed{
		BookingID:        booking.ID.String(),
		BookingReference: booking.BookingReference,
		UserID:           booking.UserID.String(),
		ShowtimeID:       booking.ShowtimeID.String(),
		SeatIDs:          seatIDs,
		SeatNumbers:      lo.Map(detail.BookedSeats, func(seat response.SeatResponse, _ int) string { return seat.SeatNumber }),
		TotalAmount:      booking.TotalAmount,
		Currency:         booking.Currency,
		PaymentID:        lo.FromPtr(booking.PaymentID),
		ConfirmedAt:      booking.UpdatedAt,
	}

	if err := s.publisher.PublishBookingConfirmed(pubCtx, evt); err != nil {
		s.log.Warn("Failed to publish booking confirmed event",
			zap.String("booking_id", evt.BookingID),
			zap.Error(err),
		)
	}

	if err := s.notifier.SeatMapChanged(pubCtx, event.SeatMapChanged{
		ShowtimeID: evt.ShowtimeID,
		Reason:     event.ReasonBooked,
		SeatIDs:    seatIDs,
		At:         booking.UpdatedAt,
	}); err != nil {
		s.log.Warn("Failed to notify seat map change", zap.String("showtime_id", evt.ShowtimeID), zap.Error(err))
	}
}

func (s *reservationService) notify(ctx context.Context, showtimeID uuid.UUID, reason event.SeatMapReason, seatIDs []uuid.UUID) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	err := s.notifier.SeatMapChanged(notifyCtx, event.SeatMapChanged{
		ShowtimeID: showtimeID.String(),
		Reason:     reason,
		SeatIDs:    seatIDStrings(seatIDs),
		At:         s.now(),
	})
	if err != nil {
		s.log.Warn("Failed to notify seat map change", zap.String("showtime_id", showtimeID.String()), zap.Error(err))
	}
}

func (s *reservationService) logOutcome(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case isConflict(err):
		s.log.Info(op+" lost a seat race", fields...)
	case errors.Is(err, entity.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		s.log.Warn(op+" timed out", fields...)
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrInvalidState):
		s.log.Warn(op+" rejected", fields...)
	default:
		s.log.Error(op+" failed", fields...)
	}
}

func outcomeLabel(err error) string {
	switch {
	case isConflict(err):
		return "conflict"
	case errors.Is(err, entity.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return "transient"
	default:
		return "error"
	}
}
