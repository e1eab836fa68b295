// Package tokenizer 提供 token 计数，用于检查抽取提示词是否超出模型上下文。
// 优先使用 tiktoken 精确计数，编码不可用时回退到字符估算。
package tokenizer
