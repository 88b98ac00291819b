// Package telemetry provides application-level observability for the member portal.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<PORTAL_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Forum workflow counters (queries submitted, responses submitted and moderated)
//   - Event registration and helpdesk ticket counters
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /v1/forum/queries/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as query or ticket IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template, NOT the raw URL, to prevent
// unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Forum workflow metrics — recorded by the forum handlers.
//
// ForumQueriesSubmittedTotal is a CounterVec with label {category} incremented
// whenever a member submits a new tax query.
//
// ForumResponsesSubmittedTotal is a plain Counter incremented when an expert
// panellist submits a response.
//
// ForumResponsesModeratedTotal is a CounterVec with label {outcome} ("approved" or
// "rejected") incremented on each moderation decision.
//
// Example PromQL queries:
//   - Queries by category:      sum by (category) (rate(forum_queries_submitted_total[24h]))
//   - Rejection ratio:          rate(forum_responses_moderated_total{outcome="rejected"}[24h]) / rate(forum_responses_moderated_total[24h])
var (
	ForumQueriesSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_queries_submitted_total",
			Help: "Total number of tax queries submitted, by category.",
		},
		[]string{"category"},
	)

	ForumResponsesSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_responses_submitted_total",
			Help: "Total number of expert responses submitted.",
		},
	)

	ForumResponsesModeratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_responses_moderated_total",
			Help: "Total number of moderation decisions, by outcome (approved/rejected).",
		},
		[]string{"outcome"},
	)
)

// Content and event metrics.
//
// ContentPublishedTotal is a CounterVec with label {kind} ("publication", "event",
// "announcement") incremented whenever an item transitions to published.
//
// EventRegistrationsTotal is a plain Counter incremented on each successful event
// registration.  Rejected registrations (full or duplicate) are not counted.
var (
	ContentPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_published_total",
			Help: "Total number of content items published, by kind.",
		},
		[]string{"kind"},
	)

	EventRegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_registrations_total",
			Help: "Total number of successful event registrations.",
		},
	)
)

// HelpdeskTicketsOpenedTotal is a CounterVec with label {priority} incremented
// once per ticket created.
//
// Example PromQL queries:
//   - Urgent ticket rate:  rate(helpdesk_tickets_opened_total{priority="urgent"}[24h])
var HelpdeskTicketsOpenedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "helpdesk_tickets_opened_total",
		Help: "Total number of helpdesk tickets opened, by priority.",
	},
	[]string{"priority"},
)

// AnnouncementsExpiredTotal is a plain Counter incremented once per announcement
// automatically unpublished by the expiry background job.
var AnnouncementsExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "announcements_expired_total",
		Help: "Total number of announcements automatically unpublished after expiry.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <PORTAL_DATABASE_MAX_CONNECTIONS> * 100
//   - Alert on near-exhaustion: db_open_connections > 20  (for max_connections=25)
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
