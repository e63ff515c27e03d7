package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrInvalidInput              = errors.New("invalid input")
	ErrInvalidSeat               = errors.New("invalid seat")
	ErrLimitExceeded             = errors.New("seat limit exceeded")
	ErrSeatUnavailable           = errors.New("seat unavailable")
	ErrHoldMismatch              = errors.New("held seats do not match request")
	ErrHoldExpired               = errors.New("seat hold expired")
	ErrSeatAlreadyBooked         = errors.New("seat already booked")
	ErrAmountMismatch            = errors.New("total amount does not match seat prices")
	ErrInvalidState              = errors.New("booking is not in a valid state for this operation")
	ErrPaymentInitFailed         = errors.New("payment initialization failed")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
	ErrTransient                 = errors.New("temporarily unavailable, retry")
)

// SeatError names the seats behind a seat-level failure. It unwraps to
// one of the sentinels above.
type SeatError struct {
	Err     error
	SeatIDs []uuid.UUID
}

func NewSeatError(err error, seatIDs []uuid.UUID) *SeatError {
	return &SeatError{Err: err, SeatIDs: seatIDs}
}

func (e *SeatError) Error() string {
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), strings.Join(ids, ", "))
}

func (e *SeatError) Unwrap() error {
	return e.Err
}

// NotFoundError names the missing resource ("booking", "showtime", "seat")
// and unwraps to ErrNotFound.
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id.String()}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, ErrNotFound.Error())
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
