package wire

import (
	"movie-booking/internal/adaptor"
	"movie-booking/internal/data/repository"
	"movie-booking/pkg/middleware"
	"movie-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func wireSeat(
	r chi.Router,
	seatHandler *adaptor.SeatHandler,
	repo *repository.Repository,
	rdb *redis.Client,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// GET /api/showtimes/{id}/seats - Seat map with held/booked state
		r.Get("/api/showtimes/{id}/seats", seatHandler.GetSeatMap)

		// DELETE /api/seats/hold/{id} - Release caller's holds for showtime {id}
		r.Delete("/api/seats/hold/{id}", seatHandler.ReleaseHold)

		// POST /api/seats/hold - Hold seats, throttled per user
		r.With(middleware.RateLimit(config.RateLimit, rdb, log)).
			Post("/api/seats/hold", seatHandler.HoldSeats)
	})
}
