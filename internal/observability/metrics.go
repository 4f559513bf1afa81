// Package observability holds the Prometheus collectors shared by the server.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghcrm",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "The total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ghcrm",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	upstreamRequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghcrm",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "The total number of GitHub API calls",
	}, []string{"operation", "outcome"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ghcrm",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "GitHub API call latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	repositoriesTrackedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ghcrm",
		Subsystem: "repositories",
		Name:      "added_total",
		Help:      "The total number of repositories added to tracking",
	})

	sessionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghcrm",
		Subsystem: "auth",
		Name:      "sessions_total",
		Help:      "Session lifecycle events",
	}, []string{"event"})
)

// Upstream call outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// RecordHTTPRequest records one served request. route is the matched pattern, not the raw path.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordUpstream records one GitHub API call
func RecordUpstream(operation, outcome string, d time.Duration) {
	upstreamRequestsCounter.WithLabelValues(operation, outcome).Inc()
	upstreamRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRepositoryAdded counts a successful add
func RecordRepositoryAdded() {
	repositoriesTrackedCounter.Inc()
}

// RecordSession counts a session event: created, revoked, rejected
func RecordSession(event string) {
	sessionsCounter.WithLabelValues(event).Inc()
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
