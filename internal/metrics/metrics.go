package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fitplan",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitplan",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fitplan",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)

	planRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitplan",
			Subsystem: "plans",
			Name:      "requests_total",
			Help:      "Plan requests by outcome (cache_hit, generated, generation_failed, store_failed).",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fitplan",
			Subsystem: "plans",
			Name:      "generation_duration_seconds",
			Help:      "Duration of plan generator calls.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"success"},
	)
)

// Plan request outcomes.
const (
	OutcomeCacheHit         = "cache_hit"
	OutcomeGenerated        = "generated"
	OutcomeGenerationFailed = "generation_failed"
	OutcomeStoreFailed      = "store_failed"
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		planRequests,
		generationDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted increments the in-flight gauge and returns the matching
// decrement.
func RequestStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPlanOutcome counts one plan request by outcome.
func RecordPlanOutcome(outcome string) {
	planRequests.WithLabelValues(outcome).Inc()
}

// RecordGeneration records one plan generator call.
func RecordGeneration(duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	result := "false"
	if success {
		result = "true"
	}
	generationDuration.WithLabelValues(result).Observe(duration.Seconds())
}
