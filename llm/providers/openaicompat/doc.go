// Package openaicompat implements llm.Provider for servers speaking the
// OpenAI Chat Completions API, such as a local vLLM deployment:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName: "vllm",
//	    BaseURL:      "http://localhost:8000/v1",
//	    DefaultModel: "Qwen/Qwen3-32B",
//	}, logger)
//
// vLLM extensions (top_k, chat_template_kwargs) are forwarded as-is.
package openaicompat
