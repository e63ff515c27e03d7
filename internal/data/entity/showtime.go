package entity

import (
	"time"

	"github.com/google/uuid"
)

type Showtime struct {
	Base
	MovieID   uuid.UUID `db:"movie_id"`
	ScreenID  uuid.UUID `db:"screen_id"`
	StartsAt  time.Time `db:"starts_at"`
	BasePrice float64   `db:"base_price"`
}
