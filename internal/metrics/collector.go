// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// 记录处理状态
const (
	StatusConformant         = "conformant"
	StatusRepaired           = "repaired"
	StatusRecoveryFailure    = "recovery_failure"
	StatusIdentifierNotFound = "identifier_not_found"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 记录处理指标
	recordsTotal       *prometheus.CounterVec
	recordDuration     *prometheus.HistogramVec
	fieldRepairsTotal  *prometheus.CounterVec
	repairIterations   prometheus.Histogram
	recoveryFixesTotal *prometheus.CounterVec
	ambiguousLabels    prometheus.Counter

	// LLM 指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	// RxNorm 指标
	rxnormLookupsTotal   *prometheus.CounterVec
	rxnormLookupDuration prometheus.Histogram

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWithRegistry 创建指标收集器，注册到指定 Registry
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 记录处理指标
	c.recordsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Total number of processed records by outcome",
		},
		[]string{"status"},
	)

	c.recordDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_duration_seconds",
			Help:      "Time spent recovering and repairing one record",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"status"},
	)

	c.fieldRepairsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_repairs_total",
			Help:      "Total number of nulled fields by path and reason",
		},
		[]string{"path", "reason"},
	)

	c.repairIterations = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repair_iterations",
			Help:      "Repair rounds needed per record",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	c.recoveryFixesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_fixes_total",
			Help:      "Total number of tolerant recovery fixes by kind",
		},
		[]string{"kind"},
	)

	c.ambiguousLabels = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifier_ambiguous_total",
			Help:      "Labels carrying more than one record identifier",
		},
	)

	// LLM 指标
	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"provider", "model"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"}, // type: prompt, completion
	)

	// RxNorm 指标
	c.rxnormLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rxnorm_lookups_total",
			Help:      "Total number of RxNorm lookups by outcome",
		},
		[]string{"status"},
	)

	c.rxnormLookupDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rxnorm_lookup_duration_seconds",
			Help:      "RxNorm lookup duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// 缓存指标
	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// 数据库指标
	c.dbConnectionsOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🩺 记录处理指标
// =============================================================================

// RecordRecord 记录一条记录的处理结果
func (c *Collector) RecordRecord(status string, duration time.Duration) {
	c.recordsTotal.WithLabelValues(status).Inc()
	c.recordDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordFieldRepair 记录一次字段置空
func (c *Collector) RecordFieldRepair(path, reason string) {
	c.fieldRepairsTotal.WithLabelValues(path, reason).Inc()
}

// RecordRepairIterations 记录修复轮数
func (c *Collector) RecordRepairIterations(n int) {
	c.repairIterations.Observe(float64(n))
}

// RecordRecoveryFix 记录一次容错修复
func (c *Collector) RecordRecoveryFix(kind string) {
	c.recoveryFixesTotal.WithLabelValues(kind).Inc()
}

// RecordAmbiguousIdentifier 记录含多个标识符的标签
func (c *Collector) RecordAmbiguousIdentifier() {
	c.ambiguousLabels.Inc()
}

// =============================================================================
// 🤖 LLM 指标记录
// =============================================================================

// RecordLLMRequest 记录 LLM 请求
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// =============================================================================
// 💊 RxNorm 指标记录
// =============================================================================

// RecordRxNormLookup 记录 RxNorm 查询
func (c *Collector) RecordRxNormLookup(status string, duration time.Duration) {
	c.rxnormLookupsTotal.WithLabelValues(status).Inc()
	c.rxnormLookupDuration.Observe(duration.Seconds())
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}
