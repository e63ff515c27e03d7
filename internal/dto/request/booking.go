package request

type HoldSeatsRequest struct {
	ShowtimeID string   `json:"showtime_id" validate:"required,uuid"`
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1,dive,uuid"`
}

type CreateBookingRequest struct {
	ShowtimeID  string   `json:"showtime_id" validate:"required,uuid"`
	SeatIDs     []string `json:"seat_ids" validate:"required,min=1,dive,uuid"`
	TotalAmount float64  `json:"total_amount" validate:"gt=0"`
}

type PaymentProof struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type VerifyPaymentRequest struct {
	BookingID    string       `json:"booking_id" validate:"required,uuid"`
	PaymentProof PaymentProof `json:"payment_proof" validate:"required"`
	SeatIDs      []string     `json:"seat_ids" validate:"required,min=1,dive,uuid"`
}
