package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the counters and histograms the daemon exposes.
type Metrics struct {
	registry *prometheus.Registry

	jiraRequests *prometheus.CounterVec
	rateLimited  prometheus.Counter
	runDuration  *prometheus.HistogramVec
	runFailures  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jiraRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jira_requests_total",
			Help: "Jira API requests by endpoint and HTTP status.",
		}, []string{"endpoint", "status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jira_rate_limited_total",
			Help: "Responses that tripped Jira rate limiting.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "run_duration_seconds",
			Help:    "Duration of report and review runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"kind"}),
		runFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "run_failures_total",
			Help: "Failed report and review runs.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.jiraRequests, m.rateLimited, m.runDuration, m.runFailures)
	return m
}

// RecordRequest counts one Jira API request by endpoint and outcome.
func (m *Metrics) RecordRequest(endpoint, status string) {
	m.jiraRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordRateLimited counts one rate-limited response.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

// RecordRun records the outcome of one run.
func (m *Metrics) RecordRun(kind string, elapsed time.Duration, err error) {
	m.runDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		m.runFailures.WithLabelValues(kind).Inc()
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
