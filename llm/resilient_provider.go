package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/internal/telemetry"
	"github.com/clinicalnotes/reportrepair/llm/retry"
	"github.com/clinicalnotes/reportrepair/types"
)

// Recorder 接收每次补全调用的指标，metrics.Collector 满足此接口。
type Recorder interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// ResilientProvider 为 Provider 增加重试、追踪与指标。
// 只有标记为可重试的 types.Error（限流、5xx、超时）会被重试。
type ResilientProvider struct {
	provider Provider
	retryer  retry.Retryer
	recorder Recorder
	logger   *zap.Logger
}

// NewResilientProvider 包装 provider。policy 为 nil 时使用默认重试策略，recorder 可为 nil。
func NewResilientProvider(provider Provider, policy *retry.RetryPolicy, recorder Recorder, logger *zap.Logger) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "llm"), zap.String("provider", provider.Name()))
	if policy == nil {
		policy = retry.DefaultRetryPolicy()
	}
	return &ResilientProvider{
		provider: provider,
		retryer:  retry.NewBackoffRetryer(policy, logger),
		recorder: recorder,
		logger:   logger,
	}
}

func (p *ResilientProvider) Name() string { return p.provider.Name() }

func (p *ResilientProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "llm.completion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", p.provider.Name()),
			attribute.String("llm.model", req.Model),
		),
	)

	attempt := 0
	resp, err := retry.DoWithResultTyped(p.retryer, ctx, func() (*ChatResponse, error) {
		attempt++
		start := time.Now()
		resp, err := p.provider.Completion(ctx, req)
		p.record(req, resp, err, time.Since(start))
		return resp, err
	})

	span.SetAttributes(attribute.Int("llm.attempts", attempt))
	if resp != nil {
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", resp.Usage.PromptTokens),
			attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens),
		)
	}
	telemetry.EndSpan(span, err)
	return resp, err
}

func (p *ResilientProvider) record(req *ChatRequest, resp *ChatResponse, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = string(types.GetErrorCode(err))
		if status == "" {
			status = "error"
		}
		p.logger.Warn("completion failed",
			zap.String("trace_id", req.TraceID),
			zap.Duration("duration", d),
			zap.Error(err),
		)
	}
	if p.recorder == nil {
		return
	}
	var prompt, completion int
	if resp != nil {
		prompt, completion = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}
	p.recorder.RecordLLMRequest(p.provider.Name(), req.Model, status, d, prompt, completion)
}
