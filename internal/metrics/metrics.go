package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/issue-tracker-api/internal/models"
)

// Metrics holds all Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	StatusTransitionsTotal *prometheus.CounterVec
	AuthzDenialsTotal      *prometheus.CounterVec
	BlobOperationsTotal    *prometheus.CounterVec
	LoginAttemptsTotal     *prometheus.CounterVec
}

// New creates and registers all collectors on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_tracker_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "issue_tracker_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		StatusTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_tracker_status_transitions_total",
				Help: "Accepted issue status transitions",
			},
			[]string{"to"},
		),
		AuthzDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_tracker_authz_denials_total",
				Help: "Authorization denials by action and reason",
			},
			[]string{"action", "reason"},
		),
		BlobOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_tracker_blob_operations_total",
				Help: "Blob store operations by kind and outcome",
			},
			[]string{"operation", "result"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_tracker_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StatusTransitionsTotal,
		m.AuthzDenialsTotal,
		m.BlobOperationsTotal,
		m.LoginAttemptsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTransition(to models.StatusID) {
	if m == nil {
		return
	}
	m.StatusTransitionsTotal.WithLabelValues(to.String()).Inc()
}

func (m *Metrics) ObserveDenial(action, reason string) {
	if m == nil {
		return
	}
	m.AuthzDenialsTotal.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) ObserveBlob(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.BlobOperationsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(result).Inc()
}
