package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal counts analysis requests by outcome (success or an error kind).
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pastport",
		Subsystem: "gateway",
		Name:      "analysis_requests_total",
		Help:      "Total number of monument analysis requests, labeled by outcome.",
	}, []string{"outcome"})

	// UpstreamDurationSeconds is the time spent waiting on the vision model.
	UpstreamDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pastport",
		Subsystem: "gateway",
		Name:      "upstream_duration_seconds",
		Help:      "Duration of upstream model calls, labeled by provider and outcome.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}, []string{"provider", "outcome"})

	// UpstreamInFlight is the number of upstream calls currently running.
	UpstreamInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pastport",
		Subsystem: "gateway",
		Name:      "upstream_in_flight",
		Help:      "Current number of upstream model calls in progress.",
	})

	// SharedCallsTotal counts requests that joined an identical in-flight call.
	SharedCallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pastport",
		Subsystem: "gateway",
		Name:      "shared_calls_total",
		Help:      "Total number of requests served by an already running identical upstream call.",
	})

	// DangerRatingTotal counts identified monuments by danger rating.
	DangerRatingTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pastport",
		Subsystem: "gateway",
		Name:      "danger_rating_total",
		Help:      "Total number of identified monuments, labeled by danger level.",
	}, []string{"level"})

	// DiagnosticsErrorsTotal counts failed diagnostic captures per sink.
	DiagnosticsErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pastport",
		Subsystem: "gateway",
		Name:      "diagnostics_errors_total",
		Help:      "Total number of diagnostic records that could not be written, labeled by sink.",
	}, []string{"sink"})
)

// Register registers gateway metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			UpstreamDurationSeconds,
			UpstreamInFlight,
			SharedCallsTotal,
			DangerRatingTotal,
			DiagnosticsErrorsTotal,
		)
	})
}
