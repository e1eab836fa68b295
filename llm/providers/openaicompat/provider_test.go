package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/llm"
	"github.com/clinicalnotes/reportrepair/llm/providers"
	"github.com/clinicalnotes/reportrepair/types"
)

func userRequest(content string) *llm.ChatRequest {
	return &llm.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: content}}}
}

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantName     string
		wantEndpoint string
		wantTimeout  time.Duration
	}{
		{"all defaults", Config{}, "openaicompat", "/chat/completions", 10 * time.Minute},
		{"custom", Config{ProviderName: "vllm", EndpointPath: "/v2/chat", Timeout: time.Second}, "vllm", "/v2/chat", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg, nil)
			assert.Equal(t, tt.wantName, p.Name())
			assert.Equal(t, tt.wantEndpoint, p.Cfg.EndpointPath)
			assert.Equal(t, "/models", p.Cfg.ModelsEndpoint)
			assert.Equal(t, tt.wantTimeout, p.Client.Timeout)
			assert.NotNil(t, p.Logger)
		})
	}
}

func TestProvider_Completion_Success(t *testing.T) {
	var got providers.OpenAICompatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(providers.OpenAICompatResponse{
			ID:    "resp-1",
			Model: "Qwen/Qwen3-32B",
			Choices: []providers.OpenAICompatChoice{{
				FinishReason: "stop",
				Message:      providers.OpenAICompatMessage{Role: "assistant", Content: "```json\n{\"vac\": 7}\n```"},
			}},
			Usage:   &providers.OpenAICompatUsage{PromptTokens: 50, CompletionTokens: 12, TotalTokens: 62},
			Created: 1700000000,
		})
	}))
	t.Cleanup(server.Close)

	p := New(Config{
		ProviderName: "vllm",
		APIKey:       "test-key",
		BaseURL:      server.URL + "/v1/",
		DefaultModel: "Qwen/Qwen3-32B",
	}, zap.NewNop())

	req := userRequest("report text")
	req.Temperature = 0.7
	req.TopP = 0.8
	req.TopK = 20
	req.MaxTokens = 32768
	req.ChatTemplateKwargs = map[string]any{"enable_thinking": false}

	resp, err := p.Completion(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "resp-1", resp.ID)
	assert.Equal(t, "vllm", resp.Provider)
	assert.Equal(t, 62, resp.Usage.TotalTokens)
	assert.False(t, resp.CreatedAt.IsZero())

	assert.Equal(t, "Qwen/Qwen3-32B", got.Model)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-6)
	assert.Equal(t, 20, got.TopK)
	assert.Equal(t, 32768, got.MaxTokens)
	assert.Equal(t, false, got.ChatTemplateKwargs["enable_thinking"])
	assert.Equal(t, []providers.OpenAICompatMessage{{Role: "user", Content: "report text"}}, got.Messages)
}

func TestProvider_Completion_NoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(providers.OpenAICompatResponse{
			Choices: []providers.OpenAICompatChoice{{Message: providers.OpenAICompatMessage{Content: "{}"}}},
		})
	}))
	t.Cleanup(server.Close)

	p := New(Config{BaseURL: server.URL}, nil)
	_, err := p.Completion(context.Background(), userRequest("x"))
	require.NoError(t, err)
}

func TestProvider_Completion_ContextModel(t *testing.T) {
	var models []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body providers.OpenAICompatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		models = append(models, body.Model)
		_ = json.NewEncoder(w).Encode(providers.OpenAICompatResponse{
			Choices: []providers.OpenAICompatChoice{{Message: providers.OpenAICompatMessage{Content: "{}"}}},
		})
	}))
	t.Cleanup(server.Close)

	p := New(Config{BaseURL: server.URL, DefaultModel: "Qwen/Qwen3-32B"}, nil)
	ctx := types.WithLLMModel(context.Background(), "Qwen/Qwen3-8B")

	_, err := p.Completion(ctx, userRequest("x"))
	require.NoError(t, err)

	explicit := userRequest("x")
	explicit.Model = "meta-llama/Llama-3.1-8B"
	_, err = p.Completion(ctx, explicit)
	require.NoError(t, err)

	assert.Equal(t, []string{"Qwen/Qwen3-8B", "meta-llama/Llama-3.1-8B"}, models)
}

func TestProvider_Completion_HTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"401", http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`, types.ErrUnauthorized, false},
		{"429", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, types.ErrRateLimited, true},
		{"400 context", http.StatusBadRequest, `{"object":"error","message":"maximum context length is 40960 tokens"}`, types.ErrContextTooLong, false},
		{"500", http.StatusInternalServerError, `oops`, types.ErrUpstreamError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			t.Cleanup(server.Close)

			p := New(Config{BaseURL: server.URL}, nil)
			_, err := p.Completion(context.Background(), userRequest("x"))
			require.Error(t, err)

			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, "openaicompat", e.Provider)
		})
	}
}

func TestProvider_Completion_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	t.Cleanup(server.Close)

	p := New(Config{BaseURL: server.URL}, nil)
	_, err := p.Completion(context.Background(), userRequest("x"))
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
	assert.True(t, types.IsRetryable(err))
}

func TestProvider_Completion_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	p := New(Config{BaseURL: server.URL}, nil)
	req := userRequest("x")
	req.Timeout = 50 * time.Millisecond

	_, err := p.Completion(context.Background(), req)
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamTimeout))
	assert.True(t, types.IsRetryable(err))
}

func TestProvider_Completion_EmptyRequest(t *testing.T) {
	p := New(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{})
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
}

func TestProvider_HealthCheck(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(int(status.Load()))
		fmt.Fprint(w, `{"object":"list","data":[]}`)
	}))
	t.Cleanup(server.Close)

	p := New(Config{BaseURL: server.URL + "/v1"}, nil)
	require.NoError(t, p.HealthCheck(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	err := p.HealthCheck(context.Background())
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
}
