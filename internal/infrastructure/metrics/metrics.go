// Package metrics owns the Prometheus registry and the collectors shared by
// the HTTP server, the tool dispatcher, the LLM adapters and the timer sweep.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ToolDispatches        *prometheus.CounterVec
	ToolDispatchDuration  *prometheus.HistogramVec
	LLMRequests           *prometheus.CounterVec
	SweepTransitions      prometheus.Counter
	SweepFailures         prometheus.Counter
	NotificationsProduced prometheus.Counter
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ToolDispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_tool_dispatch_total",
				Help: "Tool dispatches by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolDispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_tool_dispatch_duration_seconds",
				Help:    "Tool dispatch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		LLMRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_llm_requests_total",
				Help: "Language model requests by provider, phase and outcome",
			},
			[]string{"provider", "phase", "outcome"},
		),
		SweepTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assistant_timer_sweep_transitions_total",
			Help: "Timers moved from active to completed by the expiry sweep",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assistant_timer_sweep_failures_total",
			Help: "Per-timer failures during the expiry sweep",
		}),
		NotificationsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assistant_notifications_total",
			Help: "Notifications persisted for delivery",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.ToolDispatches,
		m.ToolDispatchDuration,
		m.LLMRequests,
		m.SweepTransitions,
		m.SweepFailures,
		m.NotificationsProduced,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDispatch records one tool dispatch
func (m *Metrics) ObserveDispatch(tool string, success bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.ToolDispatches.WithLabelValues(tool, outcome).Inc()
	m.ToolDispatchDuration.WithLabelValues(tool).Observe(seconds)
}

// ObserveLLM records one language model round trip
func (m *Metrics) ObserveLLM(provider, phase string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.LLMRequests.WithLabelValues(provider, phase, outcome).Inc()
}

// ObserveSweep records the outcome of one sweep pass
func (m *Metrics) ObserveSweep(transitions, failures int) {
	if m == nil {
		return
	}
	m.SweepTransitions.Add(float64(transitions))
	m.SweepFailures.Add(float64(failures))
}

// ObserveNotification records a persisted notification
func (m *Metrics) ObserveNotification() {
	if m == nil {
		return
	}
	m.NotificationsProduced.Inc()
}
