package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// WorkflowOutcomes counts workflow operations by operation and outcome.
	WorkflowOutcomes *prometheus.CounterVec
	// HTTPRequests counts served API requests by method and status code.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration observes API request latency by method.
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WorkflowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventar",
			Name:      "workflow_outcomes_total",
			Help:      "Workflow operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventar",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "inventar",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		m.WorkflowOutcomes,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome labels a workflow result. Known errors map to their own label via
// classify; anything unrecognised is "error".
func (m *Metrics) Outcome(operation string, err error, classify func(error) string) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if classify != nil {
			if label := classify(err); label != "" {
				outcome = label
			}
		}
	}
	m.WorkflowOutcomes.WithLabelValues(operation, outcome).Inc()
}

// ErrorLabel returns label when errors.Is(err, target), for building classify
// functions.
func ErrorLabel(err error, labels map[error]string) string {
	for target, label := range labels {
		if errors.Is(err, target) {
			return label
		}
	}
	return ""
}
