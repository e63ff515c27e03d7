package adaptor

import (
	"encoding/json"
	"net/http"

	"movie-booking/internal/dto/request"
	"movie-booking/internal/usecase"
	"movie-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SeatHandler struct {
	availability usecase.AvailabilityService
	reservation  usecase.ReservationService
	log          *zap.Logger
}

func NewSeatHandler(availability usecase.AvailabilityService, reservation usecase.ReservationService, log *zap.Logger) *SeatHandler {
	return &SeatHandler{
		availability: availability,
		reservation:  reservation,
		log:          log.With(zap.String("handler", "seat")),
	}
}

// GetSeatMap handles GET /api/showtimes/{id}/seats (protected)
func (h *SeatHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	seatMap, err := h.availability.GetSeatMap(r.Context(), userID, showtimeID)
	if err != nil {
		writeServiceError(w, h.log, err, "get seat map")
		return
	}

	utils.ResponseSuccess(w, "success", seatMap)
}

// HoldSeats handles POST /api/seats/hold (protected, rate limited)
func (h *SeatHandler) HoldSeats(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.HoldSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hold, err := h.reservation.RequestHold(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "hold seats")
		return
	}

	utils.ResponseCreated(w, "Seats held", hold)
}

// ReleaseHold handles DELETE /api/seats/hold/{id}, id is the showtime (protected)
func (h *SeatHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	showtimeID := chi.URLParam(r, "id")
	if err := h.reservation.ReleaseHold(r.Context(), userID, showtimeID); err != nil {
		writeServiceError(w, h.log, err, "release hold")
		return
	}

	utils.ResponseSuccess(w, "Seats released", nil)
}
