package adaptor

import (
	"movie-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Seat    *SeatHandler
	Booking *BookingHandler
	Admin   *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Seat:    NewSeatHandler(service.Availability, service.Reservation, log),
		Booking: NewBookingHandler(service.Reservation, service.Booking, log),
		Admin:   NewAdminHandler(service.Maintenance, log),
	}
}
