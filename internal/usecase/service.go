package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/data/repository"
	"movie-booking/internal/event"
	"movie-booking/internal/gateway"
	"movie-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Service struct {
	Availability AvailabilityService
	Reservation  ReservationService
	Booking      BookingService
	Maintenance  MaintenanceService
}

// Dependencies are the collaborators outside the database. Nil publisher or
// notifier fall back to no-ops, a nil clock to time.Now.
type Dependencies struct {
	Gateway   gateway.PaymentGateway
	Publisher event.Publisher
	Notifier  event.Notifier
	Now       func() time.Time
}

func NewService(repo *repository.Repository, deps Dependencies, config *utils.Config, log *zap.Logger) *Service {
	if deps.Publisher == nil {
		deps.Publisher = event.NewNopPublisher()
	}
	if deps.Notifier == nil {
		deps.Notifier = event.NewNopNotifier()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	timeout := config.Database.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Service{
		Availability: NewAvailabilityService(repo, deps.Now, timeout, log),
		Reservation:  NewReservationService(repo, deps, config, timeout, log),
		Booking:      NewBookingService(repo, timeout, log),
		Maintenance:  NewMaintenanceService(repo, deps.Now, config, timeout, log),
	}
}

func parseID(kind, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q: %w", kind, value, entity.ErrInvalidInput)
	}
	return id, nil
}

// parseSeatIDs parses and de-duplicates, keeping first-seen order.
func parseSeatIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := parseID("seat", v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), nil
}

func sameSeatSet(a, b []uuid.UUID) bool {
	onlyA, onlyB := lo.Difference(lo.Uniq(a), lo.Uniq(b))
	return len(onlyA) == 0 && len(onlyB) == 0
}

// transient marks timeouts as retryable without hiding the original error.
func transient(err error) error {
	if err == nil || errors.Is(err, entity.ErrTransient) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", entity.ErrTransient, err)
	}
	return err
}

// isConflict reports outcomes a user causes by racing others. They are
// expected under load and logged at Info, not Error.
func isConflict(err error) bool {
	return errors.Is(err, entity.ErrSeatUnavailable) ||
		errors.Is(err, entity.ErrHoldExpired) ||
		errors.Is(err, entity.ErrSeatAlreadyBooked) ||
		errors.Is(err, entity.ErrHoldMismatch)
}

func seatIDStrings(ids []uuid.UUID) []string {
	return lo.Map(ids, func(id uuid.UUID, _ int) string { return id.String() })
}
