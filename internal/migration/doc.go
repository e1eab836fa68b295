/*
包 migration 管理 reportrepair 数据表的版本化迁移，基于 golang-migrate，
支持 PostgreSQL、MySQL 与 SQLite。

# 概述

迁移文件按方言内嵌在 migrations/<dialect>/ 下：

  - 000001_create_report_tables：runs、reports、report_texts、medications
  - 000002_create_diagnostics：diagnostics

SQLite 使用纯 Go 驱动打开连接，由 golang-migrate 的 sqlite3 驱动执行 SQL，
因此无需 cgo。

# 核心类型

  - Migrator / DefaultMigrator：Up/Down/DownAll/Steps/Goto/Force/
    Version/Status/Info/Close。
  - CLI：reportrepair migrate 子命令的输出层，Run 按参数分派。
  - NewMigratorFromDatabaseConfig：从数据库配置创建。
*/
package migration
