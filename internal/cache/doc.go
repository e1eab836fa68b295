/*
包 cache 提供基于 Redis 的缓存管理能力，用于缓存 RxNorm 成分查询等
耗时的外部调用结果。

# 概述

Manager 封装 go-redis 客户端，负责连接检测、键前缀、默认 TTL
与优雅关闭。未命中通过 ErrCacheMiss 表达，可选的 HitRecorder
用于上报命中率指标。

# 核心类型

  - Manager：缓存管理器，提供 Get/Set/Delete 与 GetJSON/SetJSON。
  - HitRecorder：命中/未命中计数接口。
  - Option：WithKeyPrefix、WithDefaultTTL、WithRecorder。
*/
package cache
