package llm

import (
	"context"
	"strings"
	"time"

	"github.com/clinicalnotes/reportrepair/types"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 是一次同步补全请求。TopK 与 ChatTemplateKwargs 为 vLLM 扩展字段，
// 其他 OpenAI 兼容服务会忽略它们。
type ChatRequest struct {
	TraceID            string         `json:"trace_id,omitempty"`
	Model              string         `json:"model"`
	Messages           []Message      `json:"messages"`
	MaxTokens          int            `json:"max_tokens,omitempty"`
	Temperature        float32        `json:"temperature,omitempty"`
	TopP               float32        `json:"top_p,omitempty"`
	TopK               int            `json:"top_k,omitempty"`
	Stop               []string       `json:"stop,omitempty"`
	ChatTemplateKwargs map[string]any `json:"chat_template_kwargs,omitempty"`
	Timeout            time.Duration  `json:"timeout,omitempty"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// Text returns the trimmed content of the first choice. A response without
// choices or with blank content yields EMPTY_COMPLETION.
func (r *ChatResponse) Text() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", types.NewError(types.ErrEmptyCompletion, "completion has no choices")
	}
	text := strings.TrimSpace(r.Choices[0].Message.Content)
	if text == "" {
		return "", types.NewError(types.ErrEmptyCompletion, "completion is empty").WithProvider(r.Provider)
	}
	return text, nil
}

// Provider 定义了统一的 LLM 适配接口。抽取只需要同步补全。
type Provider interface {
	// Completion 发起同步聊天请求，返回完整响应
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name 返回 Provider 的唯一标识
	Name() string
}
