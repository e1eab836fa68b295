package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clinicalnotes/reportrepair/llm"
	"github.com/clinicalnotes/reportrepair/types"
)

// MapHTTPError 将 HTTP 状态码映射为带有合适重试标记的 types.Error
func MapHTTPError(status int, msg string, provider string) *types.Error {
	newErr := func(code types.ErrorCode, retryable bool) *types.Error {
		return types.NewError(code, msg).
			WithHTTPStatus(status).
			WithRetryable(retryable).
			WithProvider(provider)
	}

	switch status {
	case http.StatusUnauthorized:
		return newErr(types.ErrUnauthorized, false)
	case http.StatusForbidden:
		return newErr(types.ErrForbidden, false)
	case http.StatusTooManyRequests:
		return newErr(types.ErrRateLimited, true)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "context length"),
			strings.Contains(lower, "maximum context"),
			strings.Contains(lower, "too many tokens"):
			return newErr(types.ErrContextTooLong, false)
		case strings.Contains(lower, "quota"), strings.Contains(lower, "credit"):
			return newErr(types.ErrQuotaExceeded, false)
		}
		return newErr(types.ErrInvalidRequest, false)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return newErr(types.ErrUpstreamTimeout, true)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return newErr(types.ErrUpstreamError, true)
	case 529:
		return newErr(types.ErrModelOverloaded, true)
	default:
		return newErr(types.ErrUpstreamError, status >= 500)
	}
}

// ReadErrorMessage 读取响应体中的错误消息
// 尝试解析 JSON 错误响应，失败则回退到原始文本
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
		// vLLM 在部分错误上返回顶层 message
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil {
		if errResp.Error.Message != "" {
			if errResp.Error.Type != "" {
				return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
			}
			return errResp.Error.Message
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	return strings.TrimSpace(string(data))
}

// OpenAICompatMessage 表示 OpenAI 兼容的消息格式.
type OpenAICompatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// 推理模型可能把思考过程放在这里
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// OpenAICompatRequest 表示 OpenAI 兼容的聊天完成请求，含 vLLM 扩展字段.
type OpenAICompatRequest struct {
	Model              string                `json:"model"`
	Messages           []OpenAICompatMessage `json:"messages"`
	MaxTokens          int                   `json:"max_tokens,omitempty"`
	Temperature        *float32              `json:"temperature,omitempty"`
	TopP               float32               `json:"top_p,omitempty"`
	TopK               int                   `json:"top_k,omitempty"`
	Stop               []string              `json:"stop,omitempty"`
	ChatTemplateKwargs map[string]any        `json:"chat_template_kwargs,omitempty"`
}

// OpenAICompatChoice 表示 OpenAI 兼容响应中的单个选项.
type OpenAICompatChoice struct {
	Index        int                 `json:"index"`
	FinishReason string              `json:"finish_reason"`
	Message      OpenAICompatMessage `json:"message"`
}

// OpenAICompatUsage 表示 OpenAI 兼容响应中的 token 用量.
type OpenAICompatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAICompatResponse 表示 OpenAI 兼容的聊天完成响应.
type OpenAICompatResponse struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Choices []OpenAICompatChoice `json:"choices"`
	Usage   *OpenAICompatUsage   `json:"usage,omitempty"`
	Created int64                `json:"created,omitempty"`
}

// ConvertMessagesToOpenAI 将 llm.Message 切片转换为 OpenAI 兼容格式.
func ConvertMessagesToOpenAI(msgs []llm.Message) []OpenAICompatMessage {
	out := make([]OpenAICompatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, OpenAICompatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// ToLLMChatResponse 将 OpenAI 兼容的响应转换为 llm.ChatResponse.
func ToLLMChatResponse(oa OpenAICompatResponse, provider string) *llm.ChatResponse {
	choices := make([]llm.ChatChoice, 0, len(oa.Choices))
	for _, c := range oa.Choices {
		choices = append(choices, llm.ChatChoice{
			Index:        c.Index,
			FinishReason: c.FinishReason,
			Message:      llm.Message{Role: llm.RoleAssistant, Content: c.Message.Content},
		})
	}
	resp := &llm.ChatResponse{
		ID:       oa.ID,
		Provider: provider,
		Model:    oa.Model,
		Choices:  choices,
	}
	if oa.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     oa.Usage.PromptTokens,
			CompletionTokens: oa.Usage.CompletionTokens,
			TotalTokens:      oa.Usage.TotalTokens,
		}
	}
	return resp
}

// ChooseModel 根据请求和默认值选择模型
func ChooseModel(req *llm.ChatRequest, defaultModel string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return defaultModel
}

// SafeCloseBody 安全关闭 HTTP 响应体并忽略错误
func SafeCloseBody(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, body)
		_ = body.Close()
	}
}
