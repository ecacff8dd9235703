// Package metrics 提供Prometheus监控指标
//
// 指标分组：
//  1. HTTP：请求数、耗时、并发数
//  2. 库存台账：每个原语(reserve/release/confirm/restore/adjust)的调用结果和耗时
//  3. 订单：状态流转结果、处理耗时
//  4. Saga：执行结果、补偿次数
//  5. 熔断器、消息发布、审计队列
//
// 命名规范：<名词>_<单位>_total / _seconds，标签值保持低基数(不放订单号、商品ID)。
//
// PromQL示例：
//
//	# 预占失败率(库存不足占比)
//	sum(rate(ledger_operations_total{op="reserve",result="insufficient"}[5m]))
//	  / sum(rate(ledger_operations_total{op="reserve"}[5m]))
//
//	# 审计丢弃速率(队列满)
//	rate(audit_entries_total{result="dropped"}[5m])
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP指标
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInProgress prometheus.Gauge

	// 库存台账指标
	LedgerOperationsTotal   *prometheus.CounterVec
	LedgerOperationDuration *prometheus.HistogramVec

	// 订单指标
	OrderOperationsTotal   *prometheus.CounterVec
	OrderOperationDuration *prometheus.HistogramVec
	OrdersInProgress       prometheus.Gauge

	// 熔断器指标
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerRequests *prometheus.CounterVec

	// Saga指标
	SagaExecutionsTotal    *prometheus.CounterVec
	SagaExecutionDuration  prometheus.Histogram
	SagaCompensationsTotal *prometheus.CounterVec

	// 消息队列指标
	MessagesPublishedTotal *prometheus.CounterVec

	// 审计指标
	AuditEntriesTotal *prometheus.CounterVec
	AuditQueueDepth   prometheus.Gauge
)

// InitMetrics 注册所有指标(只执行一次，可以重复调用)
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "库存台账原语调用总数",
		},
		// result: success | insufficient | not_found | invalid | error
		[]string{"op", "result"},
	)
	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "库存台账原语耗时（秒，含等锁时间）",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"op"},
	)

	OrderOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_operations_total",
			Help: "订单操作总数",
		},
		// operation: create | update | confirm | dispatch | deliver | close | return | delete | payment
		[]string{"operation", "result"},
	)
	OrderOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_operation_duration_seconds",
			Help:    "订单操作耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"operation"},
	)
	OrdersInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orders_in_progress",
			Help: "正在处理的订单操作数",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"}, // success | failure | rejected
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Saga执行总数",
		},
		[]string{"result"},
	)
	SagaExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_execution_duration_seconds",
			Help:    "Saga执行耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
	SagaCompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Saga补偿执行总数",
		},
		[]string{"result"}, // success | failure
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key"},
	)

	AuditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "审计记录处理总数",
		},
		// result: queued | dropped | written | failed
		[]string{"result"},
	)
	AuditQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "审计队列中待写入的记录数",
		},
	)
}

// ObserveLedgerOp 记录一次台账原语调用
func ObserveLedgerOp(op, result string, elapsed time.Duration) {
	InitMetrics()
	LedgerOperationsTotal.WithLabelValues(op, result).Inc()
	LedgerOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveOrderOp 记录一次订单操作
func ObserveOrderOp(operation, result string, elapsed time.Duration) {
	InitMetrics()
	OrderOperationsTotal.WithLabelValues(operation, result).Inc()
	OrderOperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveSaga 记录一次Saga执行
func ObserveSaga(result string, elapsed time.Duration) {
	InitMetrics()
	SagaExecutionsTotal.WithLabelValues(result).Inc()
	SagaExecutionDuration.Observe(elapsed.Seconds())
}

// IncSagaCompensation 记录一次补偿步骤的结果
func IncSagaCompensation(result string) {
	InitMetrics()
	SagaCompensationsTotal.WithLabelValues(result).Inc()
}

// IncAudit 记录审计队列事件
func IncAudit(result string) {
	InitMetrics()
	AuditEntriesTotal.WithLabelValues(result).Inc()
}

// SetAuditQueueDepth 更新审计队列长度
func SetAuditQueueDepth(n int) {
	InitMetrics()
	AuditQueueDepth.Set(float64(n))
}

// IncMessagePublished 记录一次消息发布
func IncMessagePublished(exchange, routingKey string) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey).Inc()
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncCircuitBreakerRequest 记录熔断器请求结果
func IncCircuitBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}
