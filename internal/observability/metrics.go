package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by RecordLogin.
const (
	LoginSucceeded          = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginNotStaff           = "not_staff"
	LoginDepartmentMismatch = "department_mismatch"
	LoginNoDepartment       = "no_department"
	LoginThrottled          = "throttled"
)

// Metrics owns the service Prometheus registry and its collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	logins          *prometheus.CounterVec
	guardRejections *prometheus.CounterVec
	mutations       *prometheus.CounterVec
}

// NewMetrics initializes a registry with process and Go collectors plus service metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Requests that ended in an application error, by error code.",
		}, []string{"method", "path", "code"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authority_login_attempts_total",
			Help: "Authority login attempts by outcome.",
		}, []string{"outcome"}),
		guardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authority_guard_rejections_total",
			Help: "Authority requests rejected by the access guard, by error code.",
		}, []string{"code"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_mutations_total",
			Help: "Effective complaint changes by change type.",
		}, []string{"change_type"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordLogin counts one authority login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordGuardRejection counts one request refused by the authority guard.
func (m *Metrics) RecordGuardRejection(code string) {
	if m == nil {
		return
	}
	m.guardRejections.WithLabelValues(code).Inc()
}

// RecordMutation counts one effective complaint change.
func (m *Metrics) RecordMutation(changeType string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(changeType).Inc()
}
