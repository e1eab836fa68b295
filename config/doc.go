// Copyright 2026 reportrepair Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 config 提供 reportrepair 的配置管理。

配置按 默认值 → YAML 文件 → .env 文件 → 环境变量 的顺序叠加，
环境变量使用 REPORTREPAIR_ 前缀，键名由结构体的 env 标签拼接而成，
例如 REPORTREPAIR_PIPELINE_WORKERS、REPORTREPAIR_DATABASE_DRIVER。

# 核心类型

  - Config: 完整配置，包含 pipeline、schema、identifier、diagnostics、
    output、llm、extract、rxnorm、redis、database、log、telemetry、metrics
  - Loader: Builder 模式的配置加载器
  - DatabaseConfig.DSN: 按驱动生成连接串

# 校验

Config.Validate 汇总所有错误，返回 INVALID_CONFIG 错误码的 types.Error。
*/
package config
