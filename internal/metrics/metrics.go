// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is private to the service so tests can gather it without
// picking up collectors registered by libraries.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieapi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieapi_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthEvents = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieapi_auth_events_total",
			Help: "Authentication outcomes by method",
		},
		[]string{"method", "outcome"}, // method: local, register, google, github; outcome: success, failure
	)

	RatingsSaved = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "movieapi_ratings_saved_total",
			Help: "Total number of rating upserts",
		},
	)

	MoviesAuthored = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieapi_movies_authored_total",
			Help: "Authoring transactions by outcome",
		},
		[]string{"outcome"}, // committed, rolled_back, invalid
	)

	RateLimited = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieapi_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"bucket"},
	)

	SessionsSwept = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "movieapi_sessions_swept_total",
			Help: "Expired sessions removed by the sweeper",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordHTTPRequest records a finished request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuth records an authentication attempt.
func RecordAuth(method string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	AuthEvents.WithLabelValues(method, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
