package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "belleza",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "belleza",
			Name:      "bookings_total",
			Help:      "Booking attempts by result.",
		},
		[]string{"result"},
	)

	slotQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "belleza",
			Name:      "slot_queries_total",
			Help:      "Availability list computations.",
		},
	)

	slotsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "belleza",
			Name:      "slots_returned",
			Help:      "Open slots returned per availability query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40},
		},
	)

	availabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "belleza",
			Name:      "availability_duration_seconds",
			Help:      "Time spent computing an availability listing.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	parseFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "belleza",
			Name:      "parse_fallbacks_total",
			Help:      "Low-confidence natural-language parses by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookings,
			slotQueries,
			slotsReturned,
			availabilityDuration,
			parseFallbacks,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// Booking counts a booking attempt outcome: created, conflict, outside_hours
// or error.
func Booking(result string) {
	bookings.WithLabelValues(result).Inc()
}

// SlotQuery records one availability computation and how many slots it found.
func SlotQuery(open int) {
	slotQueries.Inc()
	slotsReturned.Observe(float64(open))
}

// StartAvailabilityTimer times one availability computation.
func StartAvailabilityTimer() *prometheus.Timer {
	return prometheus.NewTimer(availabilityDuration)
}

// ParseFallback counts a low-confidence parse, kind is "date" or "time".
func ParseFallback(kind string) {
	parseFallbacks.WithLabelValues(kind).Inc()
}
