// Package retry 提供指数退避重试器，用于推理服务调用。
// 默认只重试 types.IsRetryable 为真的错误。
package retry
