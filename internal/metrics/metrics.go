package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cubetimer_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cubetimer_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route"},
	)

	// Record metrics
	RecordsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cubetimer_records_saved_total",
			Help: "Total records saved",
		},
	)

	RecordsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cubetimer_records_deleted_total",
			Help: "Total delete requests by outcome",
		},
		[]string{"outcome"},
	)

	SavedMilliseconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cubetimer_saved_time_milliseconds",
			Help:    "Distribution of saved times",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 10),
		},
	)

	// Event metrics
	EventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cubetimer_event_subscribers",
			Help: "Connected live update subscribers",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cubetimer_events_dropped_total",
			Help: "Events dropped for slow subscribers",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RecordsSaved,
		RecordsDeleted,
		SavedMilliseconds,
		EventSubscribers,
		EventsDropped,
	)
}
