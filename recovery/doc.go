/*
Package recovery 将上游生成器输出的"近似 JSON"文本恢复为结构化值。

# 概述

恢复分为两个阶段，行为可审计、可测试：

 1. 删除所有包含代码围栏标记（默认 "```"）的行，其余行保持原有顺序
 2. 严格解析：剩余文本必须恰好是一个 JSON 值（数字保留为 json.Number）
 3. 严格解析失败时进入有界容错修复，仅处理一组枚举的缺陷，
    每次修复都记录为 Fix，之后再次严格解析
 4. 两次解析都失败时返回 RECOVERY_FAILURE（*types.Error，携带来源标签）

# 容错修复

  - think_block         — 删除 <think>…</think> 推理块
  - leading_text        — 丢弃第一个 { 或 [ 之前的说明文字
  - trailing_text       — 丢弃值闭合之后的文字
  - control_char        — 转义字符串内的原始控制字符
  - trailing_comma      — 删除闭合括号前的多余逗号
  - unquoted_key        — 为裸键名补引号
  - unterminated_string — 在输入结尾补齐字符串引号
  - unbalanced_bracket  — 补齐缺失的闭合括号，丢弃或解析错配的闭合括号
  - truncated_value     — 悬空的键或冒号补 null

容错阶段是全函数：任何输入都不会 panic，要么得到值，要么得到显式失败。
*/
package recovery
