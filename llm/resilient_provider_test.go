package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clinicalnotes/reportrepair/llm/retry"
	"github.com/clinicalnotes/reportrepair/types"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Completion(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	p.calls++
	if p.calls <= len(p.errs) && p.errs[p.calls-1] != nil {
		return nil, p.errs[p.calls-1]
	}
	return &ChatResponse{
		Provider: p.Name(),
		Model:    req.Model,
		Choices:  []ChatChoice{{Message: Message{Role: RoleAssistant, Content: " {} "}}},
		Usage:    ChatUsage{PromptTokens: 100, CompletionTokens: 3},
	}, nil
}

type llmCall struct {
	status             string
	prompt, completion int
}

type recordingRecorder struct {
	mu    sync.Mutex
	calls []llmCall
}

func (r *recordingRecorder) RecordLLMRequest(_, _ string, status string, _ time.Duration, prompt, completion int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, llmCall{status, prompt, completion})
}

func fastPolicy() *retry.RetryPolicy {
	return &retry.RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestResilientProvider_RetriesRetryable(t *testing.T) {
	inner := &scriptedProvider{errs: []error{
		types.NewError(types.ErrUpstreamError, "503").WithRetryable(true),
	}}
	rec := &recordingRecorder{}
	p := NewResilientProvider(inner, fastPolicy(), rec, zaptest.NewLogger(t))

	resp, err := p.Completion(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "scripted", p.Name())

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "{}", text)

	require.Len(t, rec.calls, 2)
	assert.Equal(t, llmCall{"UPSTREAM_ERROR", 0, 0}, rec.calls[0])
	assert.Equal(t, llmCall{"success", 100, 3}, rec.calls[1])
}

func TestResilientProvider_DoesNotRetryPermanent(t *testing.T) {
	inner := &scriptedProvider{errs: []error{types.NewError(types.ErrContextTooLong, "too long")}}
	p := NewResilientProvider(inner, fastPolicy(), nil, nil)

	_, err := p.Completion(context.Background(), &ChatRequest{Model: "m"})
	assert.True(t, types.IsErrorCode(err, types.ErrContextTooLong))
	assert.Equal(t, 1, inner.calls)
}

func TestChatResponse_Text_Empty(t *testing.T) {
	var nilResp *ChatResponse
	_, err := nilResp.Text()
	assert.True(t, types.IsErrorCode(err, types.ErrEmptyCompletion))

	_, err = (&ChatResponse{Choices: []ChatChoice{{Message: Message{Content: "  \n"}}}}).Text()
	assert.True(t, types.IsErrorCode(err, types.ErrEmptyCompletion))
}
