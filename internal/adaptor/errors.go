package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"movie-booking/internal/data/entity"
	"movie-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// writeServiceError maps domain errors onto status codes. Conflicts carry the
// offending seat IDs so the client can redraw its seat map.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var seatErr *entity.SeatError
	var details any
	if errors.As(err, &seatErr) && len(seatErr.SeatIDs) > 0 {
		details = map[string][]string{
			"seat_ids": lo.Map(seatErr.SeatIDs, func(id uuid.UUID, _ int) string { return id.String() }),
		}
	}

	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	switch {
	case errors.Is(err, entity.ErrNotFound):
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, notFoundMessage(err))

	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrInvalidSeat),
		errors.Is(err, entity.ErrLimitExceeded),
		errors.Is(err, entity.ErrHoldMismatch),
		errors.Is(err, entity.ErrAmountMismatch):
		log.Warn(operation+" rejected", fields...)
		utils.ResponseBadRequest(w, err.Error(), details)

	case errors.Is(err, entity.ErrPaymentVerificationFailed):
		log.Warn(operation+" failed - payment verification", fields...)
		utils.ResponseBadRequest(w, entity.ErrPaymentVerificationFailed.Error(), nil)

	case errors.Is(err, entity.ErrSeatUnavailable),
		errors.Is(err, entity.ErrHoldExpired),
		errors.Is(err, entity.ErrSeatAlreadyBooked),
		errors.Is(err, entity.ErrInvalidState):
		log.Info(operation+" conflict", fields...)
		utils.ResponseConflict(w, err.Error(), details)

	case errors.Is(err, entity.ErrPaymentInitFailed),
		errors.Is(err, entity.ErrGatewayUnavailable):
		log.Error(operation+" failed - payment gateway", fields...)
		utils.ResponseBadGateway(w, entity.ErrPaymentInitFailed.Error())

	case errors.Is(err, entity.ErrTransient):
		log.Warn(operation+" failed - transient", fields...)
		w.Header().Set("Retry-After", "1")
		utils.ResponseServiceUnavailable(w, entity.ErrTransient.Error())

	default:
		log.Error("Failed to "+operation, fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// notFoundMessage names the missing resource without echoing the wrapped chain.
func notFoundMessage(err error) string {
	var notFound *entity.NotFoundError
	if errors.As(err, &notFound) && notFound.Kind != "" {
		return strings.ToUpper(notFound.Kind[:1]) + notFound.Kind[1:] + " not found"
	}
	return "Resource not found"
}
