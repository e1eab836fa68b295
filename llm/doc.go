/*
包 llm 定义上游生成器（OpenAI 兼容推理服务，如 vLLM）的统一抽象。

# 核心类型

  - Provider：同步补全接口，具体实现见 llm/providers/openaicompat。
  - ChatRequest / ChatResponse：请求与响应，支持 top_k 与
    chat_template_kwargs 等 vLLM 扩展参数。
  - ResilientProvider：在 Provider 之上叠加指数退避重试、
    OpenTelemetry 追踪与 Prometheus 指标。

错误统一使用 types.Error，错误码与可重试标记由 HTTP 状态映射得到。
*/
package llm
