package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clinicalnotes/reportrepair/config"
	"github.com/clinicalnotes/reportrepair/llm"
	"github.com/clinicalnotes/reportrepair/llm/tokenizer"
	"github.com/clinicalnotes/reportrepair/schema"
	"github.com/clinicalnotes/reportrepair/types"
)

// Option configures a Generator.
type Option func(*Generator)

// WithTemplate overrides DefaultTemplate.
func WithTemplate(template string) Option {
	return func(g *Generator) { g.template = template }
}

// WithModel sets the model name sent with every request.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithTokenizer overrides the tokenizer selected from the configured encoding.
func WithTokenizer(t tokenizer.Tokenizer) Option {
	return func(g *Generator) { g.tokenizer = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// Generator turns report text into raw generator output using a chat
// completion provider. It is safe for concurrent use.
type Generator struct {
	provider   llm.Provider
	schemaJSON string
	template   string
	model      string
	cfg        config.ExtractConfig
	tokenizer  tokenizer.Tokenizer
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewGenerator creates a Generator prompting for records described by s.
func NewGenerator(provider llm.Provider, s *schema.Schema, cfg config.ExtractConfig, opts ...Option) (*Generator, error) {
	if provider == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "extract: provider is required")
	}
	if s == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "extract: schema is required")
	}
	raw, err := s.JSONSchema()
	if err != nil {
		return nil, fmt.Errorf("extract: failed to export schema: %w", err)
	}

	g := &Generator{
		provider:   provider,
		schemaJSON: string(raw),
		template:   DefaultTemplate,
		cfg:        cfg,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	g.logger = g.logger.With(zap.String("component", "extract"))
	if !validTemplate(g.template) {
		return nil, types.NewError(types.ErrInvalidConfig, "extract: template has no "+ReportPlaceholder+" placeholder")
	}
	if g.tokenizer == nil {
		g.tokenizer = tokenizer.New(cfg.Encoding, g.logger)
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(1, int(cfg.RequestsPerSecond))
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return g, nil
}

// Prompt renders the prompt for report.
func (g *Generator) Prompt(report string) string {
	return BuildPrompt(g.template, g.schemaJSON, report)
}

// Request builds the completion request for report. A prompt that does not
// leave room for a single completion token yields CONTEXT_TOO_LONG; otherwise
// max_tokens is clamped to the remaining context.
func (g *Generator) Request(report string) (*llm.ChatRequest, error) {
	prompt := g.Prompt(report)
	maxTokens := g.cfg.MaxTokens

	if limit := g.cfg.MaxModelLen; limit > 0 {
		used := g.tokenizer.CountTokens(prompt)
		if used >= limit {
			return nil, types.NewError(types.ErrContextTooLong,
				fmt.Sprintf("prompt uses %d tokens, model context is %d (%s)", used, limit, g.tokenizer.Name()))
		}
		if maxTokens <= 0 || maxTokens > limit-used {
			maxTokens = limit - used
		}
	}

	return &llm.ChatRequest{
		Model:       g.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: float32(g.cfg.Temperature),
		TopP:        float32(g.cfg.TopP),
		TopK:        g.cfg.TopK,
		ChatTemplateKwargs: map[string]any{
			"enable_thinking": g.cfg.EnableThinking,
		},
	}, nil
}

// Generate returns the trimmed generator output for report.
func (g *Generator) Generate(ctx context.Context, report string) (string, error) {
	resp, err := g.complete(ctx, report)
	if err != nil {
		return "", err
	}
	return resp.Text()
}

func (g *Generator) complete(ctx context.Context, report string) (*llm.ChatResponse, error) {
	req, err := g.Request(report)
	if err != nil {
		return nil, err
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return g.provider.Completion(ctx, req)
}
