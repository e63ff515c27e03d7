package response

import (
	"time"

	"movie-booking/internal/data/entity"
)

type BookingResponse struct {
	ID               string               `json:"id"`
	BookingReference string               `json:"booking_reference"`
	ShowtimeID       string               `json:"showtime_id"`
	TotalAmount      float64              `json:"total_amount"`
	BookingFee       float64              `json:"booking_fee"`
	Currency         string               `json:"currency"`
	PaymentStatus    entity.PaymentStatus `json:"payment_status"`
	Status           entity.BookingStatus `json:"status"`
	PaymentOrderID   *string              `json:"payment_order_id,omitempty"`
	PaymentID        *string              `json:"payment_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

type PaymentOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type BookingCreatedResponse struct {
	Booking      BookingResponse      `json:"booking"`
	PaymentOrder PaymentOrderResponse `json:"payment_order"`
}

type BookingDetailResponse struct {
	Booking     BookingResponse `json:"booking"`
	BookedSeats []SeatResponse  `json:"booked_seats"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID.String(),
		BookingReference: b.BookingReference,
		ShowtimeID:       b.ShowtimeID.String(),
		TotalAmount:      b.TotalAmount,
		BookingFee:       b.BookingFee,
		Currency:         b.Currency,
		PaymentStatus:    b.PaymentStatus,
		Status:           b.Status,
		PaymentOrderID:   b.PaymentOrderID,
		PaymentID:        b.PaymentID,
		CreatedAt:        b.CreatedAt,
	}
}
