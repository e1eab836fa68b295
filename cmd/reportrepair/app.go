package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/config"
	"github.com/clinicalnotes/reportrepair/internal/database"
	"github.com/clinicalnotes/reportrepair/internal/metrics"
	"github.com/clinicalnotes/reportrepair/internal/server"
	"github.com/clinicalnotes/reportrepair/internal/telemetry"
)

// =============================================================================
// 🧩 应用上下文
// =============================================================================

// configFlags 是所有读取配置的子命令共享的参数
type configFlags struct {
	path   string
	dotEnv string
}

func (f *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.path, "config", "", "Path to config file")
	fs.StringVar(&f.dotEnv, "env", "", "Path to .env file")
}

func (f *configFlags) load() (*config.Config, error) {
	loader := config.NewLoader().WithEnvPrefix(config.DefaultEnvPrefix)
	if f.path != "" {
		loader = loader.WithConfigPath(f.path)
	}
	if f.dotEnv != "" {
		loader = loader.WithDotEnv(f.dotEnv)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app 持有一次命令执行所需的日志、指标与遥测
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
	providers *telemetry.Providers
	server    *server.Manager
	pool      *database.PoolManager
}

func newApp(ctx context.Context, cfg *config.Config) *app {
	logger := initLogger(cfg.Log)
	logger.Debug("reportrepair starting",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a := &app{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		collector: metrics.NewCollectorWithRegistry(cfg.Metrics.Namespace, reg, logger),
	}

	providers, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	a.providers = providers

	if cfg.Metrics.Enabled {
		a.startMetricsServer()
	}
	return a
}

// startMetricsServer 在独立端口暴露 /metrics，供批处理期间抓取；
// 端口不可用时只告警，不影响批处理
func (a *app) startMetricsServer() {
	cfg := server.DefaultConfig()
	cfg.Addr = a.cfg.Metrics.Addr
	m := server.NewManager(server.MetricsHandler(a.registry), cfg, a.logger)
	if err := m.Start(); err != nil {
		a.logger.Warn("metrics server disabled", zap.Error(err))
		return
	}
	a.server = m
}

// openDatabase 打开数据库，开启指标时定期上报连接池状态
func (a *app) openDatabase(ctx context.Context) (*database.PoolManager, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	pool, err := database.Open(a.cfg.Database, a.logger)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	if a.cfg.Metrics.Enabled {
		go pool.Monitor(ctx, 15*time.Second, a.collector)
	}
	a.pool = pool
	return pool, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	if a.server != nil {
		_ = a.server.Shutdown(ctx)
	}
	if err := a.providers.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to shutdown telemetry", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// signalContext 在收到 SIGINT/SIGTERM 时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
