// Copyright 2026 reportrepair Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 diagnostics 实现只追加的诊断日志（Diagnostics Log），
记录每一次字段修复以及每一条被整体丢弃的记录，
用于事后审计上游生成器的输出质量。

# 核心类型

  - Entry — (来源标签, 字段路径, 原因) 三元组，写入后不再修改
  - Sink  — 只追加接口，单次 Append 内的条目顺序必须保持

# 内置实现

  - MemorySink — 内存切片，Entries 返回快照
  - FileSink   — JSON Lines 文件（O_APPEND），单次 Append 一次写入，多 worker 不交错
  - LoggerSink — 通过 zap 输出结构化日志
  - StoreSink  — 通过 gorm 写入 diagnostics 表，按 run_id 归档
  - Multi      — 扇出到多个 Sink，错误通过 errors.Join 合并
  - Nop        — 丢弃所有条目

# 审计

ReadFile 读回 JSON Lines 日志，Summarize 按原因与字段路径计数，
TopPaths 给出修复最频繁的字段。
*/
package diagnostics
