/*
# 概述

包 providers 提供 OpenAI 兼容推理服务的公共适配层：错误映射、
请求/响应结构与转换函数。具体实现见 openaicompat 子包。

# 核心函数

  - MapHTTPError — 将 HTTP 状态码映射为 types.Error（含 Retryable 标记），
    400 响应按消息内容区分上下文超长、配额不足与一般参数错误
  - ReadErrorMessage — 解析 OpenAI 与 vLLM 两种错误响应体
  - ConvertMessagesToOpenAI / ToLLMChatResponse — 格式转换
  - ChooseModel — 请求模型优先，其次默认模型
*/
package providers
