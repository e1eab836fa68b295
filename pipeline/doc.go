/*
# 概述

包 pipeline 将核心组件串联为逐条记录的处理流程：
文本恢复 → 校验修复 → 标识符提取 → 诊断日志。

# 核心类型

  - Document：原始文档（标签 + 文本），不可变。
  - Processor：处理单个文档，单条失败（RECOVERY_FAILURE、
    IDENTIFIER_NOT_FOUND）只丢弃该记录并写入诊断日志。
  - Runner：基于 errgroup 的有界并发批处理，输出顺序与输入一致，
    仅在 context 取消时提前结束。
  - Recorder：指标接口，由 internal/metrics.Collector 实现。

每条记录会生成一个 OpenTelemetry span（pipeline.process）。
*/
package pipeline
