package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/shellagent/types"
)

// MockExecutor 是 execution.CommandExecutor 的模拟实现，记录每次调用
type MockExecutor struct {
	mu    sync.Mutex
	calls []types.ShellCall

	executeFn func(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error)
}

// NewMockExecutor 创建 MockExecutor；fn 为空时返回空输出
func NewMockExecutor(fn func(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error)) *MockExecutor {
	return &MockExecutor{executeFn: fn}
}

// Name implements execution.CommandExecutor.
func (m *MockExecutor) Name() string { return "mock" }

// Execute implements execution.CommandExecutor.
func (m *MockExecutor) Execute(ctx context.Context, call types.ShellCall) (*types.ExecutionResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	fn := m.executeFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, call)
	}
	return &types.ExecutionResult{}, nil
}

// Calls 返回已执行的调用
func (m *MockExecutor) Calls() []types.ShellCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.ShellCall(nil), m.calls...)
}
