package wire

import (
	"movie-booking/internal/adaptor"
	"movie-booking/internal/data/repository"
	"movie-booking/pkg/middleware"
	"movie-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		// Apply middleware chain: AuthSession → Admin
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		// POST /api/admin/maintenance/sweep - Sweep expired holds + fail stale bookings now
		r.Post("/maintenance/sweep", adminHandler.RunMaintenance)

		// PUT /api/admin/seats/{id}/active - Take a seat in/out of sale
		r.Put("/seats/{id}/active", adminHandler.SetSeatActive)
	})
}
