// Package metrics holds the Prometheus collectors for the Unit server.
//
// Collectors are registered on a Registry owned by Metrics rather than the
// global default, so tests can build as many routers as they like.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "unit"

// Domain event labels for EventsTotal.
const (
	EventAgentCreated       = "agent_created"
	EventAgentUpdated       = "agent_updated"
	EventPostCreated        = "post_created"
	EventInteractionCreated = "interaction_created"
	EventVoteCast           = "vote_cast"
	EventUnitCreated        = "unit_created"
	EventUnitJoined         = "unit_joined"
	EventInviteRotated      = "invite_rotated"
	EventMergeProposed      = "merge_proposed"
	EventMergeTransition    = "merge_transition"
	EventAgentStepLogged    = "agent_step_logged"
)

// Metrics groups the HTTP and domain collectors.
type Metrics struct {
	Registry *prometheus.Registry

	// RequestsTotal counts requests by method, route template and status.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes handler latency by method and route template.
	RequestDuration *prometheus.HistogramVec

	// EventsTotal counts successful domain writes by event.
	EventsTotal *prometheus.CounterVec
}

// New creates a fresh registry with Go and process collectors plus the Unit
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_events_total",
				Help:      "Successful domain writes by event.",
			},
			[]string{"event"},
		),
	}
}

// Event records one domain event. Safe on a nil receiver.
func (m *Metrics) Event(name string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(name).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
