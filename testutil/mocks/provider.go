// MockProvider 是 llm.Provider 的测试模拟实现。
//
// 支持固定响应、按文档内容生成响应与错误注入。
package mocks

import (
	"context"
	"sync"

	"github.com/clinicalnotes/reportrepair/llm"
)

// MockProvider 是 LLM Provider 的模拟实现
type MockProvider struct {
	mu sync.Mutex

	response       string
	err            error
	failAfter      int
	promptTokens   int
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	calls []*llm.ChatRequest
}

// NewMockProvider 创建返回 "{}" 的 MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{response: "{}", promptTokens: 10}
}

// WithResponse 设置固定响应内容
func (m *MockProvider) WithResponse(content string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = content
	return m
}

// WithError 让每次调用返回 err
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter 前 n 次调用成功，之后返回 WithError 设置的错误
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithCompletionFunc 自定义补全逻辑，优先于固定响应
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

// Name 实现 llm.Provider
func (m *MockProvider) Name() string { return "mock" }

// Completion 实现 llm.Provider
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	n := len(m.calls)
	fn, err, failAfter, content := m.completionFunc, m.err, m.failAfter, m.response
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil && n > failAfter {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	return &llm.ChatResponse{
		ID:       "mock-completion",
		Provider: m.Name(),
		Model:    req.Model,
		Choices: []llm.ChatChoice{{
			FinishReason: "stop",
			Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
		}},
		Usage: llm.ChatUsage{PromptTokens: m.promptTokens, CompletionTokens: len(content) / 4},
	}, nil
}

// Calls 返回所有请求的快照
func (m *MockProvider) Calls() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*llm.ChatRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回调用次数
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
