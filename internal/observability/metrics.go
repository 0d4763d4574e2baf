package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	buildResultsTotal      *prometheus.CounterVec
	ingestLatencySeconds   prometheus.Histogram
	feedbackEntriesDropped prometheus.Counter
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the grading service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		buildResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_build_results_total",
			Help: "Total number of CI build result notifications by processing outcome.",
		}, []string{"outcome"})

		ingestLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_ingest_latency_seconds",
			Help:    "Latency distribution for build result processing.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		})

		feedbackEntriesDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_feedback_entries_dropped_total",
			Help: "Static analysis issues skipped because their payload was malformed.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_http_requests_total",
			Help: "Total number of HTTP requests served by the grading API.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_http_latency_seconds",
			Help:    "Latency distribution for grading API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(buildResultsTotal, ingestLatencySeconds, feedbackEntriesDropped, httpRequestsTotal, httpLatencySeconds)
	})
}

// BuildResults exposes the counter for processed build result notifications.
func BuildResults() *prometheus.CounterVec {
	RegisterMetrics()
	return buildResultsTotal
}

// IngestLatency exposes the ingestion latency histogram.
func IngestLatency() prometheus.Histogram {
	RegisterMetrics()
	return ingestLatencySeconds
}

// DroppedFeedback exposes the counter for skipped analysis issues.
func DroppedFeedback() prometheus.Counter {
	RegisterMetrics()
	return feedbackEntriesDropped
}

// HTTPRequests exposes the counter for HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for HTTP requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
