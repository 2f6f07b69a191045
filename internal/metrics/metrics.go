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

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Business metrics
	contactSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of accepted contact form submissions",
		},
	)

	quoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_requests_total",
			Help: "Total number of accepted quote requests",
		},
		[]string{"insurance_type"},
	)

	duplicatesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicate_submissions_rejected_total",
			Help: "Total number of submissions rejected by the duplicate guard",
		},
		[]string{"form"}, // contact, quote
	)

	analyticsEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_total",
			Help: "Total number of tracked analytics events",
		},
	)

	emailsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_dispatched_total",
			Help: "Total number of email dispatch attempts",
		},
		[]string{"kind", "status"}, // kind: notification, confirmation; status: sent, failed, disabled
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"}, // success, failure
	)
)

// Middleware records Prometheus metrics for every request
func Middleware(next http.Handler) http.Handler {
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

// RecordContactSubmission records an accepted contact form submission
func RecordContactSubmission() {
	contactSubmissionsTotal.Inc()
}

// RecordQuoteRequest records an accepted quote request
func RecordQuoteRequest(insuranceType string) {
	quoteRequestsTotal.WithLabelValues(insuranceType).Inc()
}

// RecordDuplicateRejected records a duplicate-guard rejection
func RecordDuplicateRejected(form string) {
	duplicatesRejectedTotal.WithLabelValues(form).Inc()
}

// RecordAnalyticsEvent records a tracked analytics event
func RecordAnalyticsEvent() {
	analyticsEventsTotal.Inc()
}

// RecordEmailDispatch records an email dispatch attempt
func RecordEmailDispatch(kind, status string) {
	emailsDispatchedTotal.WithLabelValues(kind, status).Inc()
}

// RecordAuthAttempt records an authentication attempt
func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}
