package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "upstream failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithProvider("vllm")

	if GetErrorCode(err) != ErrUpstreamError {
		t.Fatalf("expected code %s, got %s", ErrUpstreamError, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_WrappedClassification(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("process record: %w", NewIdentifierNotFound("notes.json"))

	assert.True(t, IsErrorCode(wrapped, ErrIdentifierNotFound))
	assert.False(t, IsErrorCode(wrapped, ErrRecoveryFailure))
	assert.Equal(t, ErrIdentifierNotFound, GetErrorCode(wrapped))

	e, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "notes.json", e.Label)
	assert.Contains(t, wrapped.Error(), "notes.json")
}

func TestNewRecoveryFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("unexpected end of input")
	err := NewRecoveryFailure("VAC_7.json", cause)

	assert.Equal(t, ErrRecoveryFailure, err.Code)
	assert.Equal(t, "VAC_7.json", err.Label)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, ErrorCode(""), GetErrorCode(cause))
}
