package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	// Inventory
	seatAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_adjustments_total",
			Help: "Seat adjustments by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)
	seatAdjustmentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seat_adjustment_duration_seconds",
			Help:    "Time from begin to commit or rollback of a seat adjustment, lock wait included.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"direction"},
	)

	// Search
	searchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flight_search_total",
			Help: "Flight searches by result: hit, miss or invalid.",
		},
		[]string{"result"},
	)

	// Gauges (DB collectors)
	flightsSoldOut = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flights_sold_out_count",
			Help: "Current number of upcoming flights with no remaining seats.",
		},
	)
	seatsRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "seats_remaining_total",
			Help: "Current sum of remaining seats over upcoming flights.",
		},
	)

	// Seat events seen by the worker
	seatEventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_events_consumed_total",
			Help: "Seat events consumed by the worker, by type.",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,

			seatAdjustments,
			seatAdjustmentDuration,

			searchRequests,

			flightsSoldOut,
			seatsRemaining,
			seatEventsConsumed,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// --- HTTP ---
func ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	c := strconv.Itoa(code)
	httpRequests.WithLabelValues(method, route, c).Inc()
	httpDuration.WithLabelValues(method, route, c).Observe(d.Seconds())
}

// --- Inventory ---
func ObserveSeatAdjustment(direction, outcome string, d time.Duration) {
	seatAdjustments.WithLabelValues(direction, outcome).Inc()
	seatAdjustmentDuration.WithLabelValues(direction).Observe(d.Seconds())
}

// --- Search ---
func IncSearch(result string) { searchRequests.WithLabelValues(result).Inc() }

// --- Worker ---
func IncSeatEventConsumed(eventType string) { seatEventsConsumed.WithLabelValues(eventType).Inc() }

func SetInventoryGauges(soldOut, remaining int64) {
	flightsSoldOut.Set(float64(max(soldOut, 0)))
	seatsRemaining.Set(float64(max(remaining, 0)))
}
