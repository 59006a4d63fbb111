package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaminghub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gaminghub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Login flow metrics
	codesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gaminghub_codes_issued_total",
			Help: "Total number of one-time codes issued",
		},
	)

	loginsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gaminghub_logins_total",
			Help: "Total number of successful logins",
		},
	)

	loginFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaminghub_login_failures_total",
			Help: "Total number of failed login attempts by reason",
		},
		[]string{"reason"},
	)

	logoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gaminghub_logouts_total",
			Help: "Total number of logouts",
		},
	)
)

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			// Use the chi route pattern to avoid cardinality explosion
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}

			status := strconv.Itoa(wrapped.status)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// IncrementCodesIssued increments the issued codes counter.
func IncrementCodesIssued() {
	codesIssuedTotal.Inc()
}

// IncrementLogins increments the successful logins counter.
func IncrementLogins() {
	loginsTotal.Inc()
}

// IncrementLoginFailures increments the login failure counter for a reason.
func IncrementLoginFailures(reason string) {
	loginFailuresTotal.WithLabelValues(reason).Inc()
}

// IncrementLogouts increments the logouts counter.
func IncrementLogouts() {
	logoutsTotal.Inc()
}
