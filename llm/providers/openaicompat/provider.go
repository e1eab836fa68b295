// =============================================================================
// reportrepair OpenAI-Compatible Provider
// =============================================================================
// Chat completions against any OpenAI-compatible server (vLLM, SGLang,
// hosted APIs). Only the synchronous path is implemented; extraction waits
// for the whole document anyway.
// =============================================================================

package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/internal/tlsutil"
	"github.com/clinicalnotes/reportrepair/llm"
	"github.com/clinicalnotes/reportrepair/llm/providers"
	"github.com/clinicalnotes/reportrepair/types"
)

// Config holds the configuration for an OpenAI-compatible provider.
type Config struct {
	// ProviderName identifies the provider in errors and metrics. Defaults to "openaicompat".
	ProviderName string

	// APIKey is sent as a Bearer token when non-empty. Local vLLM servers need none.
	APIKey string

	// BaseURL includes the API version, e.g. "http://localhost:8000/v1".
	BaseURL string

	// DefaultModel is used when the request names no model.
	DefaultModel string

	// Timeout is the HTTP client timeout. Defaults to 10m; long reports take minutes.
	Timeout time.Duration

	// EndpointPath defaults to "/chat/completions".
	EndpointPath string

	// ModelsEndpoint defaults to "/models".
	ModelsEndpoint string

	// MaxConnsPerHost bounds concurrent connections. Defaults to 16.
	MaxConnsPerHost int
}

// Provider implements llm.Provider for OpenAI-compatible servers.
type Provider struct {
	Cfg    Config
	Client *http.Client
	Logger *zap.Logger
}

// New creates a new OpenAI-compatible provider with the given config.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "openaicompat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/chat/completions"
	}
	if cfg.ModelsEndpoint == "" {
		cfg.ModelsEndpoint = "/models"
	}
	opts := tlsutil.DefaultClientOptions()
	if cfg.MaxConnsPerHost > 0 {
		opts.MaxConnsPerHost = cfg.MaxConnsPerHost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		Cfg:    cfg,
		Client: tlsutil.NewHTTPClient(cfg.Timeout, opts),
		Logger: logger.With(zap.String("component", "openaicompat")),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.Cfg.ProviderName }

func (p *Provider) buildHeaders(req *http.Request) {
	if p.Cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.Cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (p *Provider) endpoint(path string) string {
	return strings.TrimRight(p.Cfg.BaseURL, "/") + path
}

// transportError maps a failed round trip. Timeouts are retryable like 5xx.
func (p *Provider) transportError(err error) *types.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return types.NewError(types.ErrUpstreamTimeout, "request timed out").
			WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}
	return types.NewError(types.ErrUpstreamError, "request failed").
		WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
}

// HealthCheck verifies the server is reachable and lists models.
func (p *Provider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(p.Cfg.ModelsEndpoint), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return p.transportError(err)
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), p.Name())
	}
	return nil
}

// Completion performs a non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "request has no messages").WithProvider(p.Name())
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	model := providers.ChooseModel(req, p.Cfg.DefaultModel)
	if m, ok := types.LLMModel(ctx); ok && req.Model == "" {
		model = m
	}
	temperature := req.Temperature
	body := providers.OpenAICompatRequest{
		Model:              model,
		Messages:           providers.ConvertMessagesToOpenAI(req.Messages),
		MaxTokens:          req.MaxTokens,
		Temperature:        &temperature,
		TopP:               req.TopP,
		TopK:               req.TopK,
		Stop:               req.Stop,
		ChatTemplateKwargs: req.ChatTemplateKwargs,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(p.Cfg.EndpointPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	start := time.Now()
	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, p.transportError(err)
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var oaResp providers.OpenAICompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "invalid completion response").
			WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
	}

	result := providers.ToLLMChatResponse(oaResp, p.Name())
	if oaResp.Created != 0 {
		result.CreatedAt = time.Unix(oaResp.Created, 0)
	}
	p.Logger.Debug("completion finished",
		zap.String("trace_id", req.TraceID),
		zap.String("model", result.Model),
		zap.Int("completion_tokens", result.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}
