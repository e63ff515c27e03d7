package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type SeatMapReason string

const (
	ReasonHeld     SeatMapReason = "held"
	ReasonReleased SeatMapReason = "released"
	ReasonBooked   SeatMapReason = "booked"
	ReasonExpired  SeatMapReason = "expired"
)

// SeatMapChanged tells seat-map subscribers to refresh a showtime.
type SeatMapChanged struct {
	ShowtimeID string        `json:"showtime_id"`
	Reason     SeatMapReason `json:"reason"`
	SeatIDs    []string      `json:"seat_ids,omitempty"`
	At         time.Time     `json:"at"`
}

type Notifier interface {
	SeatMapChanged(ctx context.Context, msg SeatMapChanged) error
}

// ShowtimeChannel is the pub/sub channel carrying seat-map changes of one showtime.
func ShowtimeChannel(showtimeID string) string {
	return fmt.Sprintf("showtime:%s", showtimeID)
}

type redisNotifier struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, log *zap.Logger) Notifier {
	return &redisNotifier{
		rdb: rdb,
		log: log.With(zap.String("notifier", "redis")),
	}
}

func (n *redisNotifier) SeatMapChanged(ctx context.Context, msg SeatMapChanged) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal seat map change: %w", err)
	}

	if err := n.rdb.Publish(ctx, ShowtimeChannel(msg.ShowtimeID), payload).Err(); err != nil {
		return fmt.Errorf("publish seat map change for showtime %s: %w", msg.ShowtimeID, err)
	}

	return nil
}

type nopNotifier struct{}

func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) SeatMapChanged(context.Context, SeatMapChanged) error { return nil }
