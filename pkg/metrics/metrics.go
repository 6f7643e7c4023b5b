// Package metrics provides Prometheus metrics for wellchat
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/wellchat/pkg/conversation"
)

// Generation outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

// Metrics holds all Prometheus metrics for wellchat. Each Metrics owns its
// registry so several can coexist in one process.
type Metrics struct {
	// Generation call metrics
	GenerationsTotal    *prometheus.CounterVec
	GenerationDuration  prometheus.Histogram
	GenerationsInFlight prometheus.Gauge

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all metrics, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellchat_generations_total",
			Help: "Total number of generation calls by outcome",
		},
		[]string{"outcome"},
	)

	m.GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wellchat_generation_duration_seconds",
			Help:    "Duration of generation calls in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 160, 300},
		},
	)

	m.GenerationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wellchat_generations_in_flight",
			Help: "Number of generation calls currently outstanding",
		},
	)

	m.SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wellchat_sessions_active",
			Help: "Number of open chat sessions",
		},
	)

	m.SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wellchat_sessions_created_total",
			Help: "Total number of chat sessions created",
		},
	)

	m.registry.MustRegister(
		m.GenerationsTotal,
		m.GenerationDuration,
		m.GenerationsInFlight,
		m.SessionsActive,
		m.SessionsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps g so every call is counted and timed.
func (m *Metrics) Instrument(g conversation.Generator) conversation.Generator {
	return conversation.GeneratorFunc(func(ctx context.Context, question string) (string, error) {
		m.GenerationsInFlight.Inc()
		defer m.GenerationsInFlight.Dec()

		start := time.Now()
		answer, err := g.Generate(ctx, question)
		m.GenerationDuration.Observe(time.Since(start).Seconds())

		switch {
		case err == nil:
			m.GenerationsTotal.WithLabelValues(OutcomeSuccess).Inc()
		case errors.Is(err, context.Canceled):
			m.GenerationsTotal.WithLabelValues(OutcomeCanceled).Inc()
		default:
			m.GenerationsTotal.WithLabelValues(OutcomeFailure).Inc()
		}

		return answer, err
	})
}
