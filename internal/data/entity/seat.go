package entity

import "github.com/google/uuid"

type SeatClass string

const (
	SeatClassStandard SeatClass = "standard"
	SeatClassPremium  SeatClass = "premium"
)

type Seat struct {
	Base
	ScreenID    uuid.UUID `db:"screen_id"`
	RowLabel    string    `db:"row_label"`    // A, B, C, etc.
	ColumnIndex int       `db:"column_index"` // 1, 2, 3, etc.
	SeatNumber  string    `db:"seat_number"`  // A1, A2, B1, etc.
	SeatClass   SeatClass `db:"seat_class"`
	Price       float64   `db:"price"`
	IsActive    bool      `db:"is_active"`
}

// SeatStatus is derived per showtime, never stored.
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusHeld      SeatStatus = "held"
	SeatStatusBooked    SeatStatus = "booked"
)
