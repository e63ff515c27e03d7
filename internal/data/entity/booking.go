package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// BookingStatus tracks the ticket itself, independent of payment.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusUsed      BookingStatus = "used"
)

type Booking struct {
	Base
	UserID           uuid.UUID     `db:"user_id"`
	ShowtimeID       uuid.UUID     `db:"showtime_id"`
	BookingReference string        `db:"booking_reference"`
	TotalAmount      float64       `db:"total_amount"`
	BookingFee       float64       `db:"booking_fee"`
	SeatCount        int           `db:"seat_count"`
	Currency         string        `db:"currency"`
	PaymentStatus    PaymentStatus `db:"payment_status"`
	Status           BookingStatus `db:"status"`
	PaymentOrderID   *string       `db:"payment_order_id"`
	PaymentID        *string       `db:"payment_id"`
}

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusCompleted
}
