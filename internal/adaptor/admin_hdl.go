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

type AdminHandler struct {
	service usecase.MaintenanceService
	log     *zap.Logger
}

func NewAdminHandler(service usecase.MaintenanceService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// RunMaintenance handles POST /api/admin/maintenance/sweep (admin only)
func (h *AdminHandler) RunMaintenance(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunAll(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "run maintenance")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// SetSeatActive handles PUT /api/admin/seats/{id}/active (admin only)
func (h *AdminHandler) SetSeatActive(w http.ResponseWriter, r *http.Request) {
	var req request.SetSeatActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	seat, err := h.service.SetSeatActive(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "set seat active")
		return
	}

	utils.ResponseSuccess(w, "success", seat)
}
