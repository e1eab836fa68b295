// Package tlsutil 提供集中式 TLS 配置，
// 为 LLM 推理服务与 RxNorm 等出站 HTTP 客户端提供安全加固的传输层
// （TLS 1.2+，仅 AEAD 密码套件，按主机限制连接数）。
package tlsutil
