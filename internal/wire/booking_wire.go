package wire

import (
	"movie-booking/internal/adaptor"
	"movie-booking/internal/data/repository"
	"movie-booking/pkg/middleware"
	"movie-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/bookings - Create pending booking + payment order from held seats
		r.Post("/", bookingHandler.CreateBooking)

		// GET /api/bookings - Booking history (user's own bookings)
		r.Get("/", bookingHandler.GetUserBookings)

		// POST /api/bookings/verify-payment - Verify payment proof, assign seats
		r.Post("/verify-payment", bookingHandler.VerifyPayment)

		// GET /api/bookings/{id} - Booking detail with seats
		r.Get("/{id}", bookingHandler.GetBooking)

		// POST /api/bookings/{id}/payment-order - New payment order for a pending booking
		r.Post("/{id}/payment-order", bookingHandler.RetryPaymentOrder)
	})
}
