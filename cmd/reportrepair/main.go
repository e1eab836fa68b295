// =============================================================================
// reportrepair 主入口
// =============================================================================
// 将生成模型输出的 NBSE 报告 JSON 恢复、修复为符合 schema 的记录并入库
//
// 使用方法:
//
//	reportrepair extract  --config config.yaml   # 报告原文 → 原始 JSON
//	reportrepair tabulate --config config.yaml   # 原始 JSON → 修复后的表格
//	reportrepair texts                           # 报告原文表
//	reportrepair meds                            # 药品表（RxNorm 标准化）
//	reportrepair schema [--detailed]             # 打印 JSON Schema
//	reportrepair audit --log repairs.jsonl       # 汇总修复日志
//	reportrepair migrate up                      # 运行数据库迁移
// =============================================================================

package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clinicalnotes/reportrepair/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "extract":
		return runExtract(args, out)
	case "tabulate":
		return runTabulate(args, out)
	case "texts":
		return runTexts(args, out)
	case "meds":
		return runMeds(args, out)
	case "schema":
		return runSchema(args, out)
	case "audit":
		return runAudit(args, out)
	case "migrate":
		return runMigrate(args, out)
	case "version":
		printVersion(out)
		return nil
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(out io.Writer) {
	fmt.Fprintf(out, "reportrepair %s\n", Version)
	fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, `reportrepair - repair generator output into schema-conformant records

Usage:
  reportrepair <command> [options]

Commands:
  extract   Convert report texts into raw JSON with the generator
  tabulate  Recover, repair and store raw JSON outputs
  texts     Store the full text of every report
  meds      Build the medication table of a run
  schema    Print the JSON Schema of the configured descriptor
  audit     Summarize a diagnostics log
  migrate   Database migration commands
  version   Show version information
  help      Show this help message

Common options:
  --config <path>   Path to configuration file (YAML)
  --env <path>      Path to .env file

Examples:
  reportrepair extract --config config.yaml --in data/txt --out results/json
  reportrepair tabulate --in results/json --csv results/nbse.csv
  reportrepair meds --run 7f1c...
  reportrepair schema --detailed
  reportrepair audit --log logs/repairs.jsonl --top 10
  reportrepair migrate up`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
