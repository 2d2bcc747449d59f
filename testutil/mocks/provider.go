// MockProvider 的 Responses API 测试模拟实现。
//
// 按顺序返回预置响应，支持错误注入与请求记录。
package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/BaSui01/shellagent/llm"
)

// ErrScriptExhausted 预置响应用尽时返回
var ErrScriptExhausted = errors.New("mock provider: no scripted response left")

// MockProvider 是 llm.ResponsesProvider 的模拟实现
type MockProvider struct {
	mu sync.Mutex

	name      string
	responses []*llm.Response
	errs      map[int]error
	requests  []*llm.ResponseRequest

	createFn func(ctx context.Context, req *llm.ResponseRequest) (*llm.Response, error)
}

// NewMockProvider 创建按顺序返回 responses 的 MockProvider
func NewMockProvider(responses ...*llm.Response) *MockProvider {
	return &MockProvider{
		name:      "mock",
		responses: responses,
		errs:      make(map[int]error),
	}
}

// WithErrorAt 让第 n 次调用（从 0 开始）返回 err
func (m *MockProvider) WithErrorAt(n int, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[n] = err
	return m
}

// WithCreateFunc 设置自定义响应函数，优先于预置响应
func (m *MockProvider) WithCreateFunc(fn func(ctx context.Context, req *llm.ResponseRequest) (*llm.Response, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createFn = fn
	return m
}

// Name implements llm.ResponsesProvider.
func (m *MockProvider) Name() string { return m.name }

// CreateResponse implements llm.ResponsesProvider.
func (m *MockProvider) CreateResponse(ctx context.Context, req *llm.ResponseRequest) (*llm.Response, error) {
	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, cloneRequest(req))
	fn := m.createFn
	err := m.errs[n]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= len(m.responses) {
		return nil, ErrScriptExhausted
	}
	return m.responses[n], nil
}

// Requests 返回已记录的请求副本
func (m *MockProvider) Requests() []*llm.ResponseRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*llm.ResponseRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount 返回调用次数
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func cloneRequest(req *llm.ResponseRequest) *llm.ResponseRequest {
	if req == nil {
		return nil
	}
	c := *req
	c.Tools = append([]llm.Tool(nil), req.Tools...)
	c.Input = append([]llm.InputItem(nil), req.Input...)
	return &c
}
