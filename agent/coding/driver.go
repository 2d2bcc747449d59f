package coding

import (
	"context"
	"strings"
	"time"

	"github.com/BaSui01/shellagent/agent/execution"
	"github.com/BaSui01/shellagent/agent/shelllog"
	"github.com/BaSui01/shellagent/internal/ctxkeys"
	"github.com/BaSui01/shellagent/internal/metrics"
	"github.com/BaSui01/shellagent/internal/telemetry"
	"github.com/BaSui01/shellagent/llm"
	"github.com/BaSui01/shellagent/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// =============================================================================
// 🤖 对话驱动
// =============================================================================

// Agent drives one model through the propose-command, execute, feed-back
// loop until the model answers in plain text.
//
// An Agent holds no per-run state and may serve sequential or concurrent
// runs, provided the executor and logger tolerate it.
type Agent struct {
	provider llm.ResponsesProvider
	executor execution.CommandExecutor
	log      shelllog.Logger

	model        string
	systemPrompt string
	maxTurns     int
	policy       MultipleCallPolicy

	logger    *zap.Logger
	collector *metrics.Collector
	tracer    trace.Tracer
	meter     metric.Meter
	newRunID  func() string

	runCounter   metric.Int64Counter
	shellCounter metric.Int64Counter
}

// New creates an Agent. provider, executor and log are required.
func New(provider llm.ResponsesProvider, executor execution.CommandExecutor, log shelllog.Logger, opts ...Option) (*Agent, error) {
	if provider == nil {
		return nil, types.NewConfigError("agent requires a model provider")
	}
	if executor == nil {
		return nil, types.NewConfigError("agent requires a command executor")
	}
	if log == nil {
		return nil, types.NewConfigError("agent requires a logger")
	}

	a := &Agent{
		provider:     provider,
		executor:     executor,
		log:          log,
		model:        DefaultModel,
		systemPrompt: DefaultSystemPrompt,
		policy:       FirstOnly,
		logger:       zap.NewNop(),
		tracer:       otel.Tracer(telemetry.InstrumentationName),
		meter:        otel.Meter(telemetry.InstrumentationName),
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.maxTurns < 0 {
		return nil, types.NewConfigError("max turns must not be negative, got %d", a.maxTurns)
	}
	switch a.policy {
	case FirstOnly, RejectMultiple:
	default:
		return nil, types.NewConfigError("unknown multiple call policy %q", a.policy)
	}

	a.logger = a.logger.With(zap.String("component", "coding_agent"))
	a.initInstruments()
	return a, nil
}

func (a *Agent) initInstruments() {
	var err error
	a.runCounter, err = a.meter.Int64Counter("shellagent.runs",
		metric.WithDescription("Agent runs by outcome"))
	if err != nil {
		a.logger.Warn("failed to create run counter", zap.Error(err))
		a.runCounter, _ = noop.NewMeterProvider().Meter("").Int64Counter("shellagent.runs")
	}
	a.shellCounter, err = a.meter.Int64Counter("shellagent.shell_calls",
		metric.WithDescription("Shell calls executed on behalf of the model"))
	if err != nil {
		a.logger.Warn("failed to create shell call counter", zap.Error(err))
		a.shellCounter, _ = noop.NewMeterProvider().Meter("").Int64Counter("shellagent.shell_calls")
	}
}

// conversation is the chain of response IDs of one run.
type conversation struct {
	previousID  string
	responseIDs []string
}

func (c *conversation) record(resp *llm.Response) {
	c.previousID = resp.ID
	c.responseIDs = append(c.responseIDs, resp.ID)
}

// Run executes request to completion and returns the model's final text.
// Execution-backend, model and log-sink errors are returned unmodified;
// nothing partial is returned on failure.
func (a *Agent) Run(ctx context.Context, request string) (string, error) {
	if strings.TrimSpace(request) == "" {
		return "", types.NewConfigError("request is empty")
	}

	runID := a.newRunID()
	logger := a.logger.With(zap.String("run_id", runID))
	ctx = ctxkeys.WithRunID(ctx, runID)

	ctx, span := a.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("agent.run_id", runID),
		attribute.String("agent.model", a.model),
		attribute.String("agent.backend", a.executor.Name()),
	))
	defer span.End()

	logger.Info("agent run started",
		zap.String("model", a.model),
		zap.String("backend", a.executor.Name()),
		zap.Int("max_turns", a.maxTurns),
	)

	start := time.Now()
	conv := &conversation{}
	answer, turns, err := a.loop(ctx, conv, request, logger)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = string(types.GetErrorCode(err))
		if status == "" {
			status = "error"
		}
	}
	a.collector.RecordRun(status, turns, elapsed)
	a.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	span.SetAttributes(
		attribute.Int("agent.turns", turns),
		attribute.Int("agent.responses", len(conv.responseIDs)),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("agent run failed",
			zap.Int("turns", turns),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return "", err
	}

	logger.Info("agent run completed",
		zap.Int("turns", turns),
		zap.Int("responses", len(conv.responseIDs)),
		zap.Duration("duration", elapsed),
	)
	return answer, nil
}

func (a *Agent) loop(ctx context.Context, conv *conversation, request string, logger *zap.Logger) (string, int, error) {
	resp, err := a.send(ctx, conv, []llm.InputItem{
		llm.NewMessageInput(llm.RoleDeveloper, a.systemPrompt),
		llm.NewMessageInput(llm.RoleUser, request),
	})
	if err != nil {
		return "", 0, err
	}

	turns := 0
	for {
		call, pending, err := a.pendingShellCall(resp, logger)
		if err != nil {
			return "", turns, err
		}
		if !pending {
			break
		}
		if a.maxTurns > 0 && turns >= a.maxTurns {
			return "", turns, types.Errorf(types.ErrMaxTurnsExceeded,
				"model requested more than %d shell calls", a.maxTurns)
		}
		if resp.ID == "" {
			return "", turns, types.NewError(types.ErrProtocolViolation,
				"response carrying a shell call has no id to continue from")
		}
		turns++

		logger.Debug("executing shell call",
			zap.Int("turn", turns),
			zap.String("call_id", call.CallID),
			zap.Strings("command", call.Command),
			zap.String("working_directory", call.WorkingDirectory),
		)

		result, err := a.executor.Execute(ctxkeys.WithCallID(ctx, call.CallID), call)
		if err != nil {
			return "", turns, err
		}
		if result == nil {
			return "", turns, types.Errorf(types.ErrBackendFailure,
				"backend %s returned no result for call %s", a.executor.Name(), call.CallID)
		}
		a.shellCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", a.executor.Name())))

		output := result.Output()
		if err := a.log.Log(ctx, types.NewCommandEntry(call.Command, output)); err != nil {
			return "", turns, err
		}

		resp, err = a.send(ctx, conv, []llm.InputItem{llm.NewShellCallOutput(call.CallID, output)})
		if err != nil {
			return "", turns, err
		}
	}

	msg, ok := resp.AssistantMessage()
	if !ok {
		return "", turns, types.NewError(types.ErrProtocolViolation,
			"response has neither a shell call nor an assistant message")
	}
	text, ok := msg.FirstText()
	if !ok {
		return "", turns, types.NewError(types.ErrProtocolViolation,
			"assistant message has no text content")
	}

	if err := a.log.Log(ctx, types.NewFinalResponseEntry(text)); err != nil {
		return "", turns, err
	}
	return text, turns, nil
}

// pendingShellCall picks the shell call to execute next, if any.
func (a *Agent) pendingShellCall(resp *llm.Response, logger *zap.Logger) (types.ShellCall, bool, error) {
	items := resp.ShellCallItems()
	if len(items) == 0 {
		return types.ShellCall{}, false, nil
	}

	if len(items) > 1 {
		if a.policy == RejectMultiple {
			return types.ShellCall{}, false, types.Errorf(types.ErrProtocolViolation,
				"response %s carries %d shell calls, only one is supported", resp.ID, len(items))
		}
		dropped := make([]string, 0, len(items)-1)
		for _, item := range items[1:] {
			dropped = append(dropped, item.CallID)
		}
		logger.Warn("dropping extra shell calls",
			zap.String("response_id", resp.ID),
			zap.Strings("dropped_call_ids", dropped),
		)
	}

	call, ok := items[0].ShellCall()
	if !ok {
		return types.ShellCall{}, false, types.Errorf(types.ErrProtocolViolation,
			"shell call %s has no exec action", items[0].CallID)
	}
	return call, true, nil
}

// send issues one model request on the conversation and records its ID.
func (a *Agent) send(ctx context.Context, conv *conversation, input []llm.InputItem) (*llm.Response, error) {
	req := &llm.ResponseRequest{
		Model:              a.model,
		Tools:              []llm.Tool{llm.LocalShellTool},
		Input:              input,
		PreviousResponseID: conv.previousID,
	}
	if runID, ok := ctxkeys.RunID(ctx); ok {
		req.Metadata = map[string]string{"run_id": runID}
	}

	ctx, span := a.tracer.Start(ctx, "llm.create_response", trace.WithAttributes(
		attribute.String("llm.provider", a.provider.Name()),
		attribute.String("llm.model", a.model),
		attribute.String("llm.previous_response_id", conv.previousID),
	))
	defer span.End()

	start := time.Now()
	resp, err := a.provider.CreateResponse(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		a.collector.RecordModelRequest(a.provider.Name(), a.model, "error", elapsed, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp == nil {
		a.collector.RecordModelRequest(a.provider.Name(), a.model, "error", elapsed, 0, 0)
		return nil, types.NewError(types.ErrProtocolViolation, "model returned an empty response")
	}

	var in, out int
	if resp.Usage != nil {
		in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
	}
	a.collector.RecordModelRequest(a.provider.Name(), a.model, "ok", elapsed, in, out)
	span.SetAttributes(
		attribute.String("llm.response_id", resp.ID),
		attribute.Int("llm.output_items", len(resp.Output)),
	)

	conv.record(resp)
	return resp, nil
}
