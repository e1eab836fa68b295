/*
Package main 提供 reportrepair 命令行入口。

# 概述

cmd/reportrepair 串联报告抽取、记录修复、入库与审计：

  - extract   报告原文经生成模型转换为原始 JSON（OpenAI 兼容端点，如 vLLM）
  - tabulate  恢复 → 修复 → 标识符提取 → 诊断日志，结果写入数据库与 CSV
  - texts     报告原文表
  - meds      药品表，可选 RxNorm 成分标准化（Redis 缓存）
  - schema    打印 JSON Schema
  - audit     汇总 JSON Lines 诊断日志
  - migrate   golang-migrate 数据库迁移

所有子命令共享 --config / --env 参数，配置优先级为默认值 → YAML →
.env → 环境变量（前缀 REPORTREPAIR）。开启 metrics 时在独立端口暴露
/metrics；构建信息 Version、BuildTime、GitCommit 通过 ldflags 注入。
*/
package main
