// Package metrics holds the Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth events.
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventLogout         = "logout"
	EventRefresh        = "refresh"
	EventChangePassword = "change_password"
)

// Auth outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeReused   = "reused"
	OutcomeError    = "error"
)

// AuthEvents counts session lifecycle operations by event and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vidtube_auth_events_total",
		Help: "Total number of authentication events",
	},
	[]string{"event", "outcome"},
)

// HTTPRequests counts served requests by route template, method and status.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vidtube_http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"route", "method", "status"},
)

// HTTPDuration observes request latency by route template and method.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "vidtube_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"route", "method"},
)

// MediaUploads counts media store uploads by backend and outcome.
var MediaUploads = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vidtube_media_uploads_total",
		Help: "Total number of media uploads",
	},
	[]string{"kind", "outcome"},
)

// RegisterMetrics registers every collector of this package with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthEvents)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(MediaUploads)
}

// NewRegistry returns a registry with the Go and process collectors and
// this package's collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	RegisterMetrics(reg)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func RecordAuthEvent(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

func RecordHTTPRequest(route, method, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(route, method, status).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordMediaUpload counts an avatar or cover upload attempt.
func RecordMediaUpload(kind string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	MediaUploads.WithLabelValues(kind, outcome).Inc()
}
