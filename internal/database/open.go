package database

import (
	"fmt"

	glebarez "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	sqlite3 "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clinicalnotes/reportrepair/config"
	"github.com/clinicalnotes/reportrepair/types"
)

// =============================================================================
// 🔌 连接打开
// =============================================================================

// Dialector 按驱动类型返回 gorm 方言
//
// sqlite 使用纯 Go 实现，sqlite3 使用 cgo 版本。
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	dsn := cfg.DSN()
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return glebarez.Open(dsn), nil
	case "sqlite3":
		return sqlite3.Open(dsn), nil
	default:
		return nil, types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("unsupported database driver %q", cfg.Driver))
	}
}

// Open 打开数据库并按配置设置连接池
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*PoolManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Silent
	if logger.Core().Enabled(zap.DebugLevel) {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to open database").WithCause(err)
	}

	poolCfg := PoolConfigFromDatabase(cfg)
	pm, err := NewPoolManager(db, poolCfg, logger)
	if err != nil {
		return nil, err
	}
	pm.driver = cfg.Driver
	return pm, nil
}
