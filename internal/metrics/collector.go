// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Shell execution status labels.
const (
	StatusOK      = "ok"
	StatusNonZero = "nonzero"
	StatusTimeout = "timeout"
	StatusError   = "error"
)

// Collector 指标收集器
//
// 所有 Record* 方法对 nil 接收者安全，未启用指标时可直接传 nil。
type Collector struct {
	// 运行指标
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	runTurns    prometheus.Histogram

	// 模型请求指标
	modelRequestsTotal   *prometheus.CounterVec
	modelRequestDuration *prometheus.HistogramVec
	modelTokensUsed      *prometheus.CounterVec

	// Shell 执行指标
	shellExecutionsTotal   *prometheus.CounterVec
	shellExecutionDuration *prometheus.HistogramVec

	// 日志指标
	logEntriesTotal  *prometheus.CounterVec
	logFailuresTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewCollector 创建指标收集器并注册到 registry。
// registry 为 nil 时使用一个私有的 prometheus.Registry。
func NewCollector(namespace string, registry *prometheus.Registry, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	c := &Collector{
		gatherer: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of agent runs",
		},
		[]string{"status"},
	)

	c.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Agent run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"status"},
	)

	c.runTurns = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_turns",
			Help:      "Number of shell call turns per run",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	c.modelRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of model requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.modelRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.modelTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"},
	)

	c.shellExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shell_executions_total",
			Help:      "Total number of shell command executions",
		},
		[]string{"backend", "status"},
	)

	c.shellExecutionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shell_execution_duration_seconds",
			Help:      "Shell command execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	c.logEntriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_total",
			Help:      "Total number of log entries emitted",
		},
		[]string{"sink", "kind"},
	)

	c.logFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_failures_total",
			Help:      "Total number of log sink failures",
		},
		[]string{"sink"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// Gatherer returns the registry the collector reports into.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.gatherer
}

// =============================================================================
// 🎯 运行指标
// =============================================================================

// RecordRun 记录一次运行
func (c *Collector) RecordRun(status string, turns int, duration time.Duration) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	c.runTurns.Observe(float64(turns))
}

// =============================================================================
// 🤖 模型请求指标
// =============================================================================

// RecordModelRequest 记录模型请求
func (c *Collector) RecordModelRequest(provider, model, status string, duration time.Duration, inputTokens, outputTokens int) {
	if c == nil {
		return
	}
	c.modelRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.modelRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if inputTokens > 0 {
		c.modelTokensUsed.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		c.modelTokensUsed.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// =============================================================================
// 🐚 Shell 执行指标
// =============================================================================

// RecordShellExecution 记录一次命令执行
func (c *Collector) RecordShellExecution(backend, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.shellExecutionsTotal.WithLabelValues(backend, status).Inc()
	c.shellExecutionDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// =============================================================================
// 📝 日志指标
// =============================================================================

// RecordLogEntry 记录一条成功写出的日志
func (c *Collector) RecordLogEntry(sink, kind string) {
	if c == nil {
		return
	}
	c.logEntriesTotal.WithLabelValues(sink, kind).Inc()
}

// RecordLogFailure 记录日志写出失败
func (c *Collector) RecordLogFailure(sink string) {
	if c == nil {
		return
	}
	c.logFailuresTotal.WithLabelValues(sink).Inc()
}
