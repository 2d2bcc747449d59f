package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	runIDKey  contextKey = "run_id"
	callIDKey contextKey = "call_id"
)

// WithRunID 设置 RunID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取 RunID
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithCallID 设置当前执行的 shell 调用 ID
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey, callID)
}

// CallID 获取当前执行的 shell 调用 ID
func CallID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(callIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
