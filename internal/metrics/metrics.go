// Package metrics provides Prometheus metrics for the devscout pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devscout"

// Manager holds the pipeline counters. A nil Manager is a valid no-op so the
// core packages never need to care whether metrics are enabled.
type Manager struct {
	registry *prometheus.Registry

	synthesisRuns      prometheus.Counter
	synthesisFallbacks prometheus.Counter
	searchRequests     prometheus.Counter
	assignmentRequests prometheus.Counter
	matchFailures      prometheus.Counter
	profilesStored     prometheus.Gauge

	httpRequests *prometheus.CounterVec
}

func New() *Manager {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		synthesisRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_runs_total",
			Help:      "Profiles synthesized, fallbacks included.",
		}),
		synthesisFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_fallbacks_total",
			Help:      "Profiles that degraded to the deterministic fallback.",
		}),
		searchRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Free-text match requests.",
		}),
		assignmentRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_requests_total",
			Help:      "Structured assignment match requests.",
		}),
		matchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_failures_total",
			Help:      "Matching requests that failed on unusable reasoning output.",
		}),
		profilesStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profiles_stored",
			Help:      "Profiles in the last saved snapshot.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
	}
}

func (m *Manager) IncSynthesisRun() {
	if m != nil {
		m.synthesisRuns.Inc()
	}
}

func (m *Manager) IncSynthesisFallback() {
	if m != nil {
		m.synthesisFallbacks.Inc()
	}
}

func (m *Manager) IncSearchRequest() {
	if m != nil {
		m.searchRequests.Inc()
	}
}

func (m *Manager) IncAssignmentRequest() {
	if m != nil {
		m.assignmentRequests.Inc()
	}
}

func (m *Manager) IncMatchFailure() {
	if m != nil {
		m.matchFailures.Inc()
	}
}

func (m *Manager) SetProfilesStored(n int) {
	if m != nil {
		m.profilesStored.Set(float64(n))
	}
}

func (m *Manager) ObserveHTTP(method, path, status string) {
	if m != nil {
		m.httpRequests.WithLabelValues(method, path, status).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
