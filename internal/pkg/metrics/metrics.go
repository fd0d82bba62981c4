package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingTransitions counts successful booking state changes by target status.
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "transitions_total",
			Help:      "The total number of booking status transitions",
		},
		[]string{"status"},
	)

	// BookingDateConflicts counts creates rejected because the date was already taken.
	BookingDateConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "date_conflicts_total",
			Help:      "The total number of booking attempts for an unavailable date",
		},
	)

	// PaymentOutcomes counts payment lifecycle events (initiated, paid, failed, duplicate).
	PaymentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payments",
			Name:      "outcomes_total",
			Help:      "The total number of payment lifecycle outcomes",
		},
		[]string{"outcome"},
	)

	// GatewayDuration observes gateway call latency.
	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of payment gateway calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"call", "result"},
	)
)
