// Package metrics holds the gateway's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sso_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sso_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sso_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// SessionsIssued counts issued sessions by flow (login, refresh, probe).
	SessionsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sso_sessions_issued_total",
			Help: "Sessions issued, by flow.",
		},
		[]string{"flow"},
	)

	// SessionFailures counts failed session flows by flow and error code.
	SessionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sso_session_failures_total",
			Help: "Failed session flows, by flow and error code.",
		},
		[]string{"flow", "code"},
	)

	// ResolveDuration observes authorization resolution latency by view (flat, tree, contextual).
	ResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sso_authorization_resolve_duration_seconds",
			Help:    "Authorization resolution latency in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"view"},
	)
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration,
			SessionsIssued, SessionFailures, ResolveDuration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveResolve records the time since start under view.
func ObserveResolve(view string, start time.Time) {
	ResolveDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

// Instrument records request count, latency and in-flight requests per route.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpInFlight.Dec()
	}
}
