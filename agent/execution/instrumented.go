package execution

import (
	"context"
	"time"

	"github.com/BaSui01/shellagent/internal/ctxkeys"
	"github.com/BaSui01/shellagent/internal/metrics"
	"github.com/BaSui01/shellagent/internal/telemetry"
	"github.com/BaSui01/shellagent/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Instrumented wraps a CommandExecutor with a span and metrics per call.
type Instrumented struct {
	next      CommandExecutor
	collector *metrics.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewInstrumented wraps next. collector and tracer may be nil.
func NewInstrumented(next CommandExecutor, collector *metrics.Collector, tracer trace.Tracer, logger *zap.Logger) *Instrumented {
	if tracer == nil {
		tracer = otel.Tracer(telemetry.InstrumentationName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{
		next:      next,
		collector: collector,
		tracer:    tracer,
		logger:    logger.With(zap.String("component", "executor")),
	}
}

// Name returns the wrapped backend's name.
func (e *Instrumented) Name() string { return e.next.Name() }

// Execute implements CommandExecutor.
func (e *Instrumented) Execute(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error) {
	ctx, span := e.tracer.Start(ctx, "shell.execute", trace.WithAttributes(
		attribute.String("shell.backend", e.next.Name()),
		attribute.String("shell.call_id", call.CallID),
		attribute.StringSlice("shell.command", call.Command),
	))
	defer span.End()

	logger := e.logger
	if runID, ok := ctxkeys.RunID(ctx); ok {
		logger = logger.With(zap.String("run_id", runID))
		span.SetAttributes(attribute.String("agent.run_id", runID))
	}

	start := time.Now()
	res, err := e.next.Execute(ctx, call)
	elapsed := time.Since(start)
	if err == nil && res == nil {
		err = types.Errorf(types.ErrBackendFailure, "backend %s returned no result", e.next.Name())
	}

	status := metrics.StatusOK
	switch {
	case types.IsErrorCode(err, types.ErrExecutionTimeout):
		status = metrics.StatusTimeout
	case err != nil:
		status = metrics.StatusError
	case res.ExitCode != 0:
		status = metrics.StatusNonZero
	}
	e.collector.RecordShellExecution(e.next.Name(), status, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("shell execution failed",
			zap.String("call_id", call.CallID),
			zap.Strings("command", call.Command),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("shell.exit_code", res.ExitCode),
		attribute.Int("shell.output_bytes", len(res.Stdout)+len(res.Stderr)),
	)
	logger.Debug("shell execution finished",
		zap.String("call_id", call.CallID),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", elapsed),
	)
	return res, nil
}
