// Package metrics provides Prometheus metrics for the mentor service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Tutoring metrics
	PhaseTransitionsTotal *prometheus.CounterVec
	StrategySelectedTotal *prometheus.CounterVec
	PlansGeneratedTotal   prometheus.Counter

	// LLM metrics
	LLMRequestsTotal *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "mentor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	m.PhaseTransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_phase_transitions_total",
			Help: "Conversation phase changes",
		},
		[]string{"from", "to"},
	)

	m.StrategySelectedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_strategy_selected_total",
			Help: "Tutoring strategies chosen for teaching turns",
		},
		[]string{"strategy"},
	)

	m.PlansGeneratedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mentor_plans_generated_total",
			Help: "Learning plans generated",
		},
	)

	m.LLMRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_llm_requests_total",
			Help: "Text generation calls by purpose and outcome",
		},
		[]string{"purpose", "status"},
	)

	return m
}

// RecordHTTPRequest records a finished HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordPhaseTransition counts a conversation phase change.
func (m *Metrics) RecordPhaseTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.PhaseTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordStrategy counts a selected tutoring strategy.
func (m *Metrics) RecordStrategy(strategy string) {
	if m == nil {
		return
	}
	m.StrategySelectedTotal.WithLabelValues(strategy).Inc()
}

// RecordPlanGenerated counts a stored learning plan.
func (m *Metrics) RecordPlanGenerated() {
	if m == nil {
		return
	}
	m.PlansGeneratedTotal.Inc()
}

// RecordLLMRequest counts a generation call. It matches llm.Observer.
func (m *Metrics) RecordLLMRequest(purpose string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMRequestsTotal.WithLabelValues(purpose, status).Inc()
}
