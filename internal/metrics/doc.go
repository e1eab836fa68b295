// Copyright 2026 reportrepair Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖记录修复、
上游 LLM、RxNorm、缓存与数据库五个维度。

# 概述

Collector 通过 promauto 注册指标。NewCollector 使用默认 Registry，
供 promhttp 暴露；NewCollectorWithRegistry 便于测试和多实例隔离。
所有指标按 namespace 隔离。

# 主要能力

  - 记录指标：按结果（conformant/repaired/recovery_failure/
    identifier_not_found）计数与耗时、按 path/reason 统计字段置空、
    修复轮数直方图、容错修复按 kind 计数、歧义标识符计数。
  - LLM 指标：请求总数、请求耗时、Token 用量（prompt/completion）。
  - RxNorm 指标：查询结果计数与耗时。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
  - 数据库指标：打开/空闲连接数 Gauge。
*/
package metrics
