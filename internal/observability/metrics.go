package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Finish reasons recorded for audit runs.
const (
	FinishCompleted      = "completed"
	FinishBudgetExceeded = "budget_exceeded"
	FinishModelError     = "model_error"
	FinishCanceled       = "canceled"
)

// Metrics bundles Prometheus collectors for the auditor and daemon.
type Metrics struct {
	registry      *prometheus.Registry
	AuditRuns     *prometheus.CounterVec
	AuditDuration *prometheus.HistogramVec
	AuditRounds   prometheus.Histogram
	ToolCalls     *prometheus.CounterVec
	ToolDuration  *prometheus.HistogramVec
	Findings      prometheus.Counter
	ActiveSession *prometheus.GaugeVec
	TransportErrs *prometheus.CounterVec
	ModelUsage    *prometheus.CounterVec
	ModelFailures *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with audit collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repoaudit_runs_total",
		Help: "Audit runs by finish reason",
	}, []string{"finish_reason"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repoaudit_run_duration_seconds",
		Help:    "Audit run duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"finish_reason"})

	rounds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "repoaudit_run_rounds",
		Help:    "Model invocations per audit run",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 10, 15, 20},
	})

	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repoaudit_tool_calls_total",
		Help: "Tool dispatches by tool and status",
	}, []string{"tool", "status"})

	toolDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repoaudit_tool_duration_seconds",
		Help:    "Tool dispatch duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})

	findings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repoaudit_findings_total",
		Help: "Secret findings reported by env scans",
	})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "repoaudit_transport_active_sessions",
		Help: "Active streaming sessions by transport",
	}, []string{"transport"})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repoaudit_transport_errors_total",
		Help: "Transport-level errors (handler/streaming) by transport and reason",
	}, []string{"transport", "reason"})

	modelUsage := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repoaudit_model_requests_total",
		Help: "Model invocations by model",
	}, []string{"model"})

	modelFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repoaudit_model_failures_total",
		Help: "Model invocation failures by model",
	}, []string{"model"})

	reg.MustRegister(runs, durs, rounds, toolCalls, toolDur, findings, active, trErrors, modelUsage, modelFailures)

	return &Metrics{
		registry:      reg,
		AuditRuns:     runs,
		AuditDuration: durs,
		AuditRounds:   rounds,
		ToolCalls:     toolCalls,
		ToolDuration:  toolDur,
		Findings:      findings,
		ActiveSession: active,
		TransportErrs: trErrors,
		ModelUsage:    modelUsage,
		ModelFailures: modelFailures,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAuditRun records the outcome of one orchestration run.
func (m *Metrics) RecordAuditRun(finishReason string, duration time.Duration, rounds int) {
	if m == nil {
		return
	}
	if finishReason == "" {
		finishReason = "unknown"
	}
	m.AuditRuns.WithLabelValues(finishReason).Inc()
	m.AuditDuration.WithLabelValues(finishReason).Observe(duration.Seconds())
	m.AuditRounds.Observe(float64(rounds))
}

// RecordToolCall records a single tool dispatch.
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordFindings adds n secret findings.
func (m *Metrics) RecordFindings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Findings.Add(float64(n))
}

// IncActiveSessions increments the active session gauge.
func (m *Metrics) IncActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Inc()
}

// DecActiveSessions decrements the active session gauge.
func (m *Metrics) DecActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	if transport == "" {
		transport = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	m.TransportErrs.WithLabelValues(transport, reason).Inc()
}

// RecordModelRequest increments the invocation counter for model.
func (m *Metrics) RecordModelRequest(model string) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.ModelUsage.WithLabelValues(model).Inc()
}

// RecordModelFailure increments the failure counter for model.
func (m *Metrics) RecordModelFailure(model string) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.ModelFailures.WithLabelValues(model).Inc()
}
