package response

import (
	"time"

	"movie-booking/internal/data/entity"
)

type SeatResponse struct {
	ID         string           `json:"id"`
	SeatNumber string           `json:"seat_number"`
	Row        string           `json:"row"`
	Column     int              `json:"column"`
	SeatClass  entity.SeatClass `json:"seat_class"`
	Price      float64          `json:"price"`
	IsActive   bool             `json:"is_active"`
}

type SeatStatusResponse struct {
	SeatResponse
	Status   entity.SeatStatus `json:"status"`
	HeldByMe bool              `json:"held_by_me"`
}

type SeatMapSummary struct {
	Available int `json:"available"`
	Held      int `json:"held"`
	Booked    int `json:"booked"`
}

type SeatMapResponse struct {
	ShowtimeID      string               `json:"showtime_id"`
	ScreenID        string               `json:"screen_id"`
	Seats           []SeatStatusResponse `json:"seats"`
	Summary         SeatMapSummary       `json:"summary"`
	MyHoldExpiresAt *time.Time           `json:"my_hold_expires_at,omitempty"`
}

type HoldResponse struct {
	ShowtimeID  string         `json:"showtime_id"`
	HeldSeats   []SeatResponse `json:"held_seats"`
	ExpiresAt   time.Time      `json:"expires_at"`
	HoldSeconds int            `json:"hold_seconds"`
}

type MaintenanceResponse struct {
	ExpiredHolds   int64 `json:"expired_holds"`
	FailedBookings int64 `json:"failed_bookings"`
}

func SeatToResponse(seat *entity.Seat) SeatResponse {
	return SeatResponse{
		ID:         seat.ID.String(),
		SeatNumber: seat.SeatNumber,
		Row:        seat.RowLabel,
		Column:     seat.ColumnIndex,
		SeatClass:  seat.SeatClass,
		Price:      seat.Price,
		IsActive:   seat.IsActive,
	}
}
