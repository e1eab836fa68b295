package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_EmptyEncoding(t *testing.T) {
	tok := New("", nil)
	assert.Equal(t, "estimator", tok.Name())
	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 2, tok.CountTokens("12345678"))
}

func TestNew_UnknownEncodingFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tok := New("no_such_encoding", zap.New(core))

	assert.Equal(t, "estimator", tok.Name())
	assert.Positive(t, tok.CountTokens("Patient is a 72 year old male."))
	assert.Equal(t, 1, logs.FilterMessage("falling back to token estimate").Len())
}

func TestTiktoken_LoadError(t *testing.T) {
	tok := NewTiktoken("no_such_encoding")
	assert.Error(t, tok.Load())
	assert.Error(t, tok.Load())
	assert.Equal(t, 0, tok.CountTokens("text"))
	assert.Equal(t, "tiktoken[no_such_encoding]", tok.Name())
}
