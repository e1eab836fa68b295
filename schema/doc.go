// Copyright 2026 reportrepair Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 schema 提供声明式的记录描述符（Schema Descriptor），
驱动校验、修复以及面向上游生成器的 JSON Schema 导出。

描述符是一组有序的字段规格，每个字段声明期望的值类型、
可选的数值上下界或枚举值。对象字段携带下一层的嵌套描述符，
数组与映射字段通过 Items 描述其元素。

# 核心类型

  - Schema     — 单层字段规格的有序集合，New 构建后不可变、并发安全
  - Field      — 单个字段的类型与约束（Minimum/Maximum/Enum/Items/Schema）
  - Kind       — integer/number/string/boolean/date/array/map/object
  - Violation  — 字段级校验失败，携带点分路径与原因
  - DescriptorError — 描述符自身不一致时的错误

# 主要能力

  - 构建校验：同层字段名唯一、约束与类型一致（边界仅用于数值、枚举仅用于字符串）
  - 分层校验：Check 仅校验单层，Validate 递归校验整条记录
  - 可选性：缺失或 null 的字段永远合法
  - 严格类型：不做任何类型转换，"5" 不是整数
  - 描述符文件：Parse / LoadFile 支持 YAML 与 JSON
  - 内置描述符：NBSEReport（平铺）与 NBSEReportDetailed（按测评分组嵌套）
  - 导出：JSONSchema 生成可嵌入提示词的 JSON Schema 文档

# 典型用法

	s := schema.MustNew("Report",
		schema.Integer("score").WithRange(0, 30),
		schema.String("sex").WithEnum("male", "female"),
	)
	if vs := schema.Validate(record, s); len(vs) > 0 {
		// 交给 repair 包处理
	}
*/
package schema
