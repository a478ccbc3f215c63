package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"method", "endpoint"},
	)

	// Lead metrics
	leadIntakeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_intake_total",
			Help: "Total number of leads received by the intake route",
		},
		[]string{"outcome"}, // accepted, rejected, failed
	)

	crmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_requests_total",
			Help: "Total number of outbound CRM requests",
		},
		[]string{"target", "outcome"}, // target: intake, forward; outcome: success, upstream_error, transport_error
	)

	crmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_request_duration_seconds",
			Help:    "Outbound CRM request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"target"},
	)

	leadformSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadform_submissions_total",
			Help: "Total number of lead form submit attempts",
		},
		[]string{"outcome"}, // submitted, invalid, failed
	)
)

// PrometheusMiddleware creates a middleware that records Prometheus metrics
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, statusCode).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordLeadIntake records the outcome of an intake route request
func RecordLeadIntake(outcome string) {
	leadIntakeTotal.WithLabelValues(outcome).Inc()
}

// RecordCRMRequest records an outbound CRM call
func RecordCRMRequest(target, outcome string, duration time.Duration) {
	crmRequestsTotal.WithLabelValues(target, outcome).Inc()
	crmRequestDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// RecordFormSubmission records a lead form submit attempt
func RecordFormSubmission(outcome string) {
	leadformSubmissionsTotal.WithLabelValues(outcome).Inc()
}
