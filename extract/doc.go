/*
Package extract 将报告原文通过上游生成模型转换为原始 JSON 文本。

# 概述

Generator 使用包含 JSON Schema 的提示模板（{schema} 与 {report} 占位符）
构造单轮用户消息，经 llm.Provider 发起补全请求。

# 核心能力

  - Token 预算: 用 tiktoken 计算提示长度，超出模型上下文时返回
    CONTEXT_TOO_LONG，否则将 max_tokens 截断到剩余上下文
  - 非思考模式: 通过 chat_template_kwargs.enable_thinking 控制
  - 限速: golang.org/x/time/rate
  - 批处理: Run 以有界并发遍历输入目录，写出 <stem>.json，
    默认跳过已存在的输出

生成结果不做任何修复，交由 pipeline 处理。
*/
package extract
