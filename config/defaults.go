// =============================================================================
// 📦 reportrepair 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Pipeline:    DefaultPipelineConfig(),
		Schema:      DefaultSchemaConfig(),
		Identifier:  DefaultIdentifierConfig(),
		Diagnostics: DefaultDiagnosticsConfig(),
		Output:      OutputConfig{},
		LLM:         DefaultLLMConfig(),
		Extract:     DefaultExtractConfig(),
		RxNorm:      DefaultRxNormConfig(),
		Redis:       DefaultRedisConfig(),
		Database:    DefaultDatabaseConfig(),
		Log:         DefaultLogConfig(),
		Telemetry:   DefaultTelemetryConfig(),
		Metrics:     DefaultMetricsConfig(),
	}
}

// DefaultPipelineConfig 返回默认流水线配置
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Workers:     4,
		InputDir:    "results/json",
		Pattern:     "*.json",
		Tolerant:    true,
		FenceMarker: "```",
	}
}

// DefaultSchemaConfig 返回默认 schema 配置
func DefaultSchemaConfig() SchemaConfig {
	return SchemaConfig{Source: "nbse"}
}

// DefaultIdentifierConfig 返回默认标识符配置
func DefaultIdentifierConfig() IdentifierConfig {
	return IdentifierConfig{
		Marker: "VAC",
		Field:  "vac",
	}
}

// DefaultDiagnosticsConfig 返回默认诊断日志配置
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		LogPath: "results/repairs.jsonl",
		Store:   true,
		Logger:  false,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL: "http://localhost:8000/v1",
		APIKey:  "",
		Model:   "Qwen/Qwen3-32B",
		Timeout: 10 * time.Minute,
	}
}

// DefaultExtractConfig 返回默认抽取配置
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		InputDir:          "data/txt",
		OutputDir:         "results/json",
		Pattern:           "*.txt",
		Overwrite:         false,
		Temperature:       0.7,
		TopP:              0.8,
		TopK:              20,
		MaxTokens:         32768,
		MaxModelLen:       40960,
		EnableThinking:    false,
		Workers:           8,
		RequestsPerSecond: 0,
		Encoding:          "cl100k_base",
	}
}

// DefaultRxNormConfig 返回默认 RxNorm 配置
func DefaultRxNormConfig() RxNormConfig {
	return RxNormConfig{
		BaseURL:           "https://rxnav.nlm.nih.gov/REST",
		RequestsPerSecond: 20,
		Timeout:           30 * time.Second,
		CacheEnabled:      false,
		CacheTTL:          24 * time.Hour,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "reportrepair",
		Password:        "",
		Name:            "reportrepair.db",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "reportrepair",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Namespace: "reportrepair",
	}
}
