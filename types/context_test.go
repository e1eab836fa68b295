package types

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, ok := RunID(ctx); ok {
		t.Fatalf("expected no run id on empty context")
	}

	ctx = WithRunID(ctx, "run")
	if got, ok := RunID(ctx); !ok || got != "run" {
		t.Fatalf("RunID mismatch: %v %v", got, ok)
	}

	ctx = WithLabel(ctx, "VAC_12.json")
	if got, ok := Label(ctx); !ok || got != "VAC_12.json" {
		t.Fatalf("Label mismatch: %v %v", got, ok)
	}

	ctx = WithLLMModel(ctx, "Qwen/Qwen3-32B")
	if got, ok := LLMModel(ctx); !ok || got != "Qwen/Qwen3-32B" {
		t.Fatalf("LLMModel mismatch: %v %v", got, ok)
	}

	if _, ok := Label(WithLabel(context.Background(), "")); ok {
		t.Fatalf("expected empty label to be reported as missing")
	}
}
