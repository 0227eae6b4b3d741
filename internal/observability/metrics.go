package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	attemptsStartedTotal  *prometheus.CounterVec
	attemptsSubmitted     *prometheus.CounterVec
	attemptsGradedTotal   prometheus.Counter
	gradingDurationSecond prometheus.Histogram
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the attempt
// lifecycle.
func RegisterMetrics() {
	registerOnce.Do(func() {
		attemptsStartedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempts_started_total",
			Help: "Total number of attempts started, labelled by assessment status.",
		}, []string{"assessment_status"})

		attemptsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempts_submitted_total",
			Help: "Total number of attempts submitted, labelled by resulting attempt status.",
		}, []string{"status"})

		attemptsGradedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exam_attempts_graded_total",
			Help: "Total number of attempts with published results.",
		})

		gradingDurationSecond = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_grading_duration_seconds",
			Help:    "Wall-clock duration between attempt start and submission.",
			Buckets: []float64{30, 60, 300, 600, 1200, 1800, 3600, 7200},
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exam_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(
			attemptsStartedTotal, attemptsSubmitted, attemptsGradedTotal, gradingDurationSecond,
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
		)
	})
}

// AttemptsStarted exposes the counter for started attempts.
func AttemptsStarted() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsStartedTotal
}

// AttemptsSubmitted exposes the counter for submitted attempts.
func AttemptsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsSubmitted
}

// AttemptsGraded exposes the counter for published results.
func AttemptsGraded() prometheus.Counter {
	RegisterMetrics()
	return attemptsGradedTotal
}

// GradingDuration exposes the attempt duration histogram.
func GradingDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingDurationSecond
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}
