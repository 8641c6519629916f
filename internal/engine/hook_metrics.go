package engine

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsHook counts pipeline events in a private Prometheus registry.
// A run is a batch job, so the registry is dumped to a node-exporter
// textfile instead of being scraped.
type MetricsHook struct {
	NopHook

	registry      *prometheus.Registry
	oracleCalls   *prometheus.CounterVec
	oracleRetries *prometheus.CounterVec
	builds        *prometheus.CounterVec
	probes        *prometheus.CounterVec
	issues        *prometheus.CounterVec
	agentRuns     *prometheus.CounterVec
}

// NewMetricsHook registers the autodev counters on a fresh registry.
func NewMetricsHook() *MetricsHook {
	m := &MetricsHook{
		registry: prometheus.NewRegistry(),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autodev",
			Name:      "oracle_requests_total",
			Help:      "Logical oracle requests issued by agents.",
		}, []string{"agent", "operation"}),
		oracleRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autodev",
			Name:      "oracle_retries_total",
			Help:      "Oracle requests repeated after a failure.",
		}, []string{"agent"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autodev",
			Name:      "builds_total",
			Help:      "Builds of the generated project by result.",
		}, []string{"result"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autodev",
			Name:      "probes_total",
			Help:      "HTTP liveness probes by kind and outcome.",
		}, []string{"kind", "outcome"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autodev",
			Name:      "issues_total",
			Help:      "Non-fatal issues reported by agents.",
		}, []string{"agent"}),
		agentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autodev",
			Name:      "agent_runs_total",
			Help:      "Agent executions by outcome.",
		}, []string{"agent", "outcome"}),
	}
	m.registry.MustRegister(m.oracleCalls, m.oracleRetries, m.builds, m.probes, m.issues, m.agentRuns)
	return m
}

// Gatherer exposes the registry, mainly for tests.
func (m *MetricsHook) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile atomically writes the current counters in text exposition format.
func (m *MetricsHook) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *MetricsHook) OnOracleCall(_ context.Context, position, operation string) {
	m.oracleCalls.WithLabelValues(position, operation).Inc()
}
func (m *MetricsHook) OnRetryAttempt(_ context.Context, position, _ string, _ int, _ time.Duration, _ error) {
	m.oracleRetries.WithLabelValues(position).Inc()
}
func (m *MetricsHook) OnBuild(_ context.Context, _ string, r BuildReport) {
	result := "failure"
	if r.Success {
		result = "success"
	}
	m.builds.WithLabelValues(result).Inc()
}
func (m *MetricsHook) OnProbe(_ context.Context, _ string, r ProbeReport) {
	outcome := "ok"
	switch {
	case r.Err != nil:
		outcome = "transport_error"
	case !r.OK():
		outcome = "bad_status"
	}
	m.probes.WithLabelValues(string(r.Kind), outcome).Inc()
}
func (m *MetricsHook) OnIssue(_ context.Context, position, _ string) {
	m.issues.WithLabelValues(position).Inc()
}
func (m *MetricsHook) OnAgentDone(_ context.Context, position string, err error) {
	outcome := "finished"
	if err != nil {
		outcome = "failed"
	}
	m.agentRuns.WithLabelValues(position, outcome).Inc()
}
