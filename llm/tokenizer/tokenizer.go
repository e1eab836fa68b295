package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/types"
)

// Tokenizer 是统一的 token 计数接口。
type Tokenizer interface {
	types.TokenCounter

	// Name 返回分词器的名称
	Name() string
}

// Tiktoken 基于 BPE 编码精确计数，编码数据在首次使用时加载。
type Tiktoken struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktoken 为指定编码（如 "cl100k_base"）创建分词器。
func NewTiktoken(encoding string) *Tiktoken {
	return &Tiktoken{encoding: encoding}
}

// Load 加载编码数据，可重复调用。
func (t *Tiktoken) Load() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens 加载失败时返回 0。调用方应先 Load 或使用 New 获得回退。
func (t *Tiktoken) CountTokens(text string) int {
	if err := t.Load(); err != nil {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

func (t *Tiktoken) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}

// Estimator 在无法加载编码时按字符数估算。
type Estimator struct {
	*types.EstimateTokenizer
}

func (Estimator) Name() string { return "estimator" }

// New 返回指定编码的 tiktoken 分词器；编码为空或加载失败（未知编码、
// 离线无法下载）时回退到字符估算器并记录警告。
func New(encoding string, logger *zap.Logger) Tokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	est := Estimator{types.NewEstimateTokenizer()}
	if encoding == "" {
		return est
	}
	t := NewTiktoken(encoding)
	if err := t.Load(); err != nil {
		logger.Warn("falling back to token estimate",
			zap.String("component", "tokenizer"),
			zap.String("encoding", encoding),
			zap.Error(err),
		)
		return est
	}
	return t
}
