package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/clinicalnotes/reportrepair/internal/migration"
)

// =============================================================================
// 🗃️ 数据库迁移命令
// =============================================================================

// runMigrate 处理 migrate 子命令，例如 "migrate goto 1"
func runMigrate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var cf configFlags
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printMigrateUsage(out)
		return nil
	}

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	m, err := migration.NewMigratorFromDatabaseConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	ctx, stop := signalContext()
	defer stop()

	cli := migration.NewCLI(m)
	cli.SetOutput(out)
	return cli.Run(ctx, rest)
}

func printMigrateUsage(out io.Writer) {
	fmt.Fprintln(out, `Database Migration Commands

Usage:
  reportrepair migrate [--config <path>] <subcommand> [args]

Subcommands:
  up          Apply all pending migrations
  down        Rollback the last migration
  reset       Rollback all migrations
  steps <n>   Apply (n > 0) or rollback (n < 0) n migrations
  goto <v>    Migrate to a specific version
  force <v>   Force set migration version (use with caution)
  version     Show current migration version
  status      Show migration status
  info        Show migration summary

Examples:
  reportrepair migrate up
  reportrepair migrate --config /etc/reportrepair/config.yaml status
  reportrepair migrate goto 1`)
}
