package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	recomputesTotal         *prometheus.CounterVec
	recomputeLatencySeconds *prometheus.HistogramVec
	violationReportsTotal   *prometheus.CounterVec
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors for the scoring core.
func RegisterMetrics() {
	registerOnce.Do(func() {
		recomputesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_recomputes_total",
			Help: "Total number of participation aggregate recomputations.",
		}, []string{"format", "outcome"})

		recomputeLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoring_recompute_latency_seconds",
			Help:    "Latency distribution for aggregate recomputations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"format"})

		violationReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_violation_reports_total",
			Help: "Total number of integrity violation reports recorded.",
		}, []string{"outcome"})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_http_requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_http_request_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "route"})

		prometheus.MustRegister(
			recomputesTotal,
			recomputeLatencySeconds,
			violationReportsTotal,
			httpRequestsTotal,
			httpLatencySeconds,
		)
	})
}

// HTTPRequests exposes the counter for handled HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for HTTP requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Recomputes exposes the counter for aggregate recomputations.
func Recomputes() *prometheus.CounterVec {
	RegisterMetrics()
	return recomputesTotal
}

// RecomputeLatency exposes the latency histogram for recomputations.
func RecomputeLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return recomputeLatencySeconds
}

// ViolationReports exposes the counter for violation reports.
func ViolationReports() *prometheus.CounterVec {
	RegisterMetrics()
	return violationReportsTotal
}
