package coding

import (
	"strings"

	"github.com/BaSui01/shellagent/internal/metrics"
	"github.com/BaSui01/shellagent/types"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultModel is used when WithModel is not given.
	DefaultModel = "codex-mini-latest"
	// DefaultSystemPrompt is the developer instruction sent with the request.
	DefaultSystemPrompt = "You are a helpful assistant that can write code and execute shell commands."
)

// MultipleCallPolicy decides what happens when one response carries more
// than one local_shell_call.
type MultipleCallPolicy string

const (
	// FirstOnly executes the first call and drops the rest.
	FirstOnly MultipleCallPolicy = "first_only"
	// RejectMultiple fails the run with a protocol violation.
	RejectMultiple MultipleCallPolicy = "reject"
)

// ParseMultipleCallPolicy maps a config string to a policy. Empty means FirstOnly.
func ParseMultipleCallPolicy(s string) (MultipleCallPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FirstOnly):
		return FirstOnly, nil
	case string(RejectMultiple), "reject_multiple":
		return RejectMultiple, nil
	default:
		return "", types.NewConfigError("unknown multiple call policy %q", s)
	}
}

// Option configures an Agent.
type Option func(*Agent)

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(a *Agent) {
		if model != "" {
			a.model = model
		}
	}
}

// WithSystemPrompt replaces the developer instruction.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithMaxTurns bounds the number of executed shell calls; 0 means unbounded.
func WithMaxTurns(n int) Option {
	return func(a *Agent) { a.maxTurns = n }
}

// WithMultipleCallPolicy sets the multiple-call policy.
func WithMultipleCallPolicy(p MultipleCallPolicy) Option {
	return func(a *Agent) { a.policy = p }
}

// WithZapLogger sets the diagnostic logger.
func WithZapLogger(logger *zap.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records Prometheus metrics into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Agent) { a.collector = c }
}

// WithTracer sets the tracer used for run and model request spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Agent) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithMeter sets the OTel meter for the run counters.
func WithMeter(m metric.Meter) Option {
	return func(a *Agent) {
		if m != nil {
			a.meter = m
		}
	}
}

// WithRunIDGenerator replaces the UUID run ID generator.
func WithRunIDGenerator(fn func() string) Option {
	return func(a *Agent) {
		if fn != nil {
			a.newRunID = fn
		}
	}
}
