package observability

import (
	"context"

	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "midirelay"

// Metrics holds the router collectors.
type Metrics struct {
	Forwarded       *prometheus.CounterVec
	ForwardedBytes  *prometheus.CounterVec
	ForwardErrors   *prometheus.CounterVec
	RoutesOpen      prometheus.Gauge
	RoutesAbandoned *prometheus.CounterVec
	PortsClosed     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Forwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forwarded_messages_total",
				Help:      "Messages sent from an input to an output.",
			},
			[]string{"input", "output"},
		),
		ForwardedBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forwarded_bytes_total",
				Help:      "Bytes sent from an input to an output.",
			},
			[]string{"input", "output"},
		),
		ForwardErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forward_errors_total",
				Help:      "Sends that failed or panicked.",
			},
			[]string{"input", "output"},
		),
		RoutesOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "routes_open",
				Help:      "Routes opened and not yet closed.",
			},
		),
		RoutesAbandoned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "routes_abandoned_total",
				Help:      "Inputs skipped at startup.",
			},
			[]string{"input"},
		),
		PortsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ports_closed_total",
				Help:      "Handles closed at shutdown, by direction and result.",
			},
			[]string{"direction", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Forwarded, m.ForwardedBytes, m.ForwardErrors, m.RoutesOpen, m.RoutesAbandoned, m.PortsClosed)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRouteOpened: func(context.Context, *domain.RouteEvent) {
			m.RoutesOpen.Inc()
		},
		OnRouteAbandoned: func(_ context.Context, e *domain.RouteEvent) {
			m.RoutesAbandoned.WithLabelValues(e.Route.Input.Name).Inc()
		},
		OnForward: func(_ context.Context, e *domain.ForwardEvent) {
			m.Forwarded.WithLabelValues(e.Input, e.Output).Inc()
			m.ForwardedBytes.WithLabelValues(e.Input, e.Output).Add(float64(e.Bytes))
		},
		OnForwardError: func(_ context.Context, e *domain.ForwardEvent) {
			m.ForwardErrors.WithLabelValues(e.Input, e.Output).Inc()
		},
		OnPortClosed: func(_ context.Context, e *domain.PortEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.PortsClosed.WithLabelValues(string(e.Direction), result).Inc()
			// One input per route.
			if e.Direction == domain.DirectionIn {
				m.RoutesOpen.Dec()
			}
		},
	}
}
