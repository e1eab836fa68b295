/*
Package types 提供 reportrepair 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 recovery、repair、
pipeline、llm、rxnorm 等上层模块提供统一的错误码与上下文契约，
以避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，携带来源标签、HTTP 状态码、Retryable 标记
  - TokenUsage        — Token 消耗统计
  - TokenCounter      — 最小 Token 计数接口
  - EstimateTokenizer — 基于字符数的 Token 估算（无法加载 BPE 编码时的回退）

# 主要能力

  - 记录级错误：NewRecoveryFailure / NewIdentifierNotFound
  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
  - Context 传播：WithRunID / WithLabel / WithLLMModel
*/
package types
