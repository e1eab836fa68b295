/*
包 database 负责打开 reportrepair 使用的关系数据库，并管理 GORM 连接池。

# 概述

Open 根据 config.DatabaseConfig 选择方言：sqlite（纯 Go，glebarez）、
sqlite3（cgo）、postgres、mysql。sqlite 系列强制单连接，避免并发写入
时出现 "database is locked"。

# 核心类型

  - PoolManager：持有 GORM DB 与底层 sql.DB，提供 DB、Ping、Stats、
    Close、Monitor 与事务方法。
  - PoolConfig：连接池参数。
  - StatsRecorder：Monitor 上报连接数的接口，由 metrics.Collector 实现。

# 事务

WithTransaction 执行单次事务；WithTransactionRetry 对锁冲突与瞬时
连接错误做指数退避重试，tabular.Store 的批量写入使用它。
*/
package database
