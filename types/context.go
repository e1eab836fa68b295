package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyRunID    contextKey = "run_id"
	keyLabel    contextKey = "label"
	keyLLMModel contextKey = "llm_model"
)

// WithRunID adds the tabulation run ID to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, keyRunID, runID)
}

// RunID extracts run ID from context.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRunID).(string)
	return v, ok && v != ""
}

// WithLabel adds the source label of the record being processed.
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, keyLabel, label)
}

// Label extracts the source label from context.
func Label(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyLabel).(string)
	return v, ok && v != ""
}

// WithLLMModel adds LLM model to context.
func WithLLMModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, keyLLMModel, model)
}

// LLMModel extracts LLM model from context.
func LLMModel(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyLLMModel).(string)
	return v, ok && v != ""
}
