package entity

import (
	"time"

	"github.com/google/uuid"
)

// Hold is a temporary exclusive claim on one seat for one showtime.
type Hold struct {
	BaseSimple
	UserID     uuid.UUID `db:"user_id"`
	ShowtimeID uuid.UUID `db:"showtime_id"`
	SeatID     uuid.UUID `db:"seat_id"`
	ExpiresAt  time.Time `db:"expires_at"`
}

// ActiveAt reports whether the hold still counts at now. A hold that
// expires exactly at now is already gone.
func (h *Hold) ActiveAt(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}

func HoldSeatIDs(holds []*Hold) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(holds))
	for _, h := range holds {
		ids = append(ids, h.SeatID)
	}
	return ids
}
