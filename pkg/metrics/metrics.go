package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HoldRequests counts seat hold attempts by outcome
	HoldRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "hold_requests_total",
			Help:      "Seat hold requests by outcome",
		},
		[]string{"result"},
	)

	// BookingsCreated counts pending bookings by payment order outcome
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "created_total",
			Help:      "Bookings created by payment order outcome",
		},
		[]string{"result"},
	)

	// PaymentConfirmations counts confirmation attempts by outcome
	PaymentConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "payment_confirmations_total",
			Help:      "Payment confirmations by outcome",
		},
		[]string{"result"},
	)

	SeatsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "seats_booked_total",
			Help:      "Seats permanently assigned to paid bookings",
		},
	)

	HoldsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "holds_expired_total",
			Help:      "Expired holds removed by sweeps",
		},
	)

	StaleBookingsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "stale_bookings_failed_total",
			Help:      "Pending bookings marked failed after timing out",
		},
	)

	// HTTPRequestDuration observes request latency per route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
