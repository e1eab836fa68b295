// =============================================================================
// 📦 reportrepair 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + .env 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithDotEnv(".env").
//	    WithEnvPrefix("REPORTREPAIR").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → .env 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/clinicalnotes/reportrepair/types"
)

// DefaultEnvPrefix 环境变量默认前缀
const DefaultEnvPrefix = "REPORTREPAIR"

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 reportrepair 的完整配置结构
type Config struct {
	// Pipeline 记录处理流水线配置
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`

	// Schema 目标 schema 来源
	Schema SchemaConfig `yaml:"schema" env:"SCHEMA"`

	// Identifier 记录标识符提取配置
	Identifier IdentifierConfig `yaml:"identifier" env:"IDENTIFIER"`

	// Diagnostics 修复诊断日志配置
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" env:"DIAGNOSTICS"`

	// Output 表格输出配置
	Output OutputConfig `yaml:"output" env:"OUTPUT"`

	// LLM 上游生成模型配置
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Extract 报告抽取配置
	Extract ExtractConfig `yaml:"extract" env:"EXTRACT"`

	// RxNorm 药品名称标准化配置
	RxNorm RxNormConfig `yaml:"rxnorm" env:"RXNORM"`

	// Redis 缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Database 数据库配置
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics Prometheus 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// PipelineConfig 流水线配置
type PipelineConfig struct {
	// 并发 worker 数
	Workers int `yaml:"workers" env:"WORKERS"`
	// 输入目录（原始 JSON 文档）
	InputDir string `yaml:"input_dir" env:"INPUT_DIR"`
	// 文件匹配模式
	Pattern string `yaml:"pattern" env:"PATTERN"`
	// 是否启用容错修复阶段
	Tolerant bool `yaml:"tolerant" env:"TOLERANT"`
	// 代码块围栏标记
	FenceMarker string `yaml:"fence_marker" env:"FENCE_MARKER"`
}

// SchemaConfig schema 配置
type SchemaConfig struct {
	// 来源: nbse, nbse-detailed 或描述文件路径
	Source string `yaml:"source" env:"SOURCE"`
}

// IdentifierConfig 标识符配置
type IdentifierConfig struct {
	// 标识符前缀标记
	Marker string `yaml:"marker" env:"MARKER"`
	// 记录中被覆盖的字段名
	Field string `yaml:"field" env:"FIELD"`
}

// DiagnosticsConfig 诊断日志配置
type DiagnosticsConfig struct {
	// JSON Lines 日志文件路径（为空时不写文件）
	LogPath string `yaml:"log_path" env:"LOG_PATH"`
	// 是否写入数据库
	Store bool `yaml:"store" env:"STORE"`
	// 是否同时输出到 zap 日志
	Logger bool `yaml:"logger" env:"LOGGER"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// CSV 导出路径（为空时不导出）
	CSVPath string `yaml:"csv_path" env:"CSV_PATH"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// OpenAI 兼容端点
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API Key（可选，vLLM 默认不校验）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ExtractConfig 抽取配置
type ExtractConfig struct {
	// 报告文本目录
	InputDir string `yaml:"input_dir" env:"INPUT_DIR"`
	// 原始 JSON 输出目录
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
	// 文件匹配模式
	Pattern string `yaml:"pattern" env:"PATTERN"`
	// 已存在的输出是否覆盖
	Overwrite bool `yaml:"overwrite" env:"OVERWRITE"`
	// 采样温度
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// Top-P
	TopP float64 `yaml:"top_p" env:"TOP_P"`
	// Top-K
	TopK int `yaml:"top_k" env:"TOP_K"`
	// 最大生成 Token 数
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 模型上下文长度
	MaxModelLen int `yaml:"max_model_len" env:"MAX_MODEL_LEN"`
	// 是否开启思考模式
	EnableThinking bool `yaml:"enable_thinking" env:"ENABLE_THINKING"`
	// 并发请求数
	Workers int `yaml:"workers" env:"WORKERS"`
	// 每秒请求数（0 表示不限速）
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// tiktoken 编码名称
	Encoding string `yaml:"encoding" env:"ENCODING"`
}

// RxNormConfig RxNorm 配置
type RxNormConfig struct {
	// API 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 每秒请求数
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 是否启用 Redis 缓存
	CacheEnabled bool `yaml:"cache_enabled" env:"CACHE_ENABLED"`
	// 缓存过期时间
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动类型: postgres, mysql, sqlite, sqlite3
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名（sqlite 时为文件路径）
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否暴露 /metrics
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	dotEnvPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithDotEnv 设置 .env 文件路径，文件中的变量不会覆盖已存在的环境变量
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotEnvPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → .env 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 读取 .env 文件
	if l.dotEnvPath != "" {
		if err := l.loadDotEnv(); err != nil {
			return nil, fmt.Errorf("failed to load dotenv file: %w", err)
		}
	}

	// 4. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 5. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadDotEnv 将 .env 文件中的变量写入进程环境
func (l *Loader) loadDotEnv() error {
	if _, err := os.Stat(l.dotEnvPath); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(l.dotEnvPath)
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置，返回 INVALID_CONFIG 错误
func (c *Config) Validate() error {
	var errs []string

	// 流水线
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, "pipeline.workers must be positive")
	}
	if c.Schema.Source == "" {
		errs = append(errs, "schema.source is required")
	}
	if c.Identifier.Marker == "" {
		errs = append(errs, "identifier.marker is required")
	}

	// 抽取参数
	if c.Extract.Temperature < 0 || c.Extract.Temperature > 2 {
		errs = append(errs, "extract.temperature must be between 0 and 2")
	}
	if c.Extract.TopP <= 0 || c.Extract.TopP > 1 {
		errs = append(errs, "extract.top_p must be in (0, 1]")
	}
	if c.Extract.MaxTokens <= 0 {
		errs = append(errs, "extract.max_tokens must be positive")
	}
	if c.Extract.MaxModelLen > 0 && c.Extract.MaxModelLen <= c.Extract.MaxTokens {
		errs = append(errs, "extract.max_model_len must exceed extract.max_tokens")
	}
	if c.Extract.Workers <= 0 {
		errs = append(errs, "extract.workers must be positive")
	}
	if c.Extract.RequestsPerSecond < 0 {
		errs = append(errs, "extract.requests_per_second must not be negative")
	}

	if c.RxNorm.RequestsPerSecond <= 0 {
		errs = append(errs, "rxnorm.requests_per_second must be positive")
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return types.NewError(types.ErrInvalidConfig, "config validation errors: "+strings.Join(errs, "; "))
	}

	return nil
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite", "sqlite3":
		return d.Name
	default:
		return ""
	}
}
