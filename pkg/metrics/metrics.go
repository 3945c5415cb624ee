package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"routing_key", "queue"},
	)

	// 数据库慢查询计数
	DBSlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Number of queries slower than the configured threshold",
		},
	)

	// 慢查询耗时（秒）
	DBSlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow database queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// 模板分配结果计数
	AssignmentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_assignment_total",
			Help: "Template to hire assignments by outcome",
		},
		[]string{"result"}, // result: assigned, duplicate, rejected, failed
	)

	// 生成的 todo 数量
	TodoMaterializedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_todos_materialized_total",
			Help: "Todos created from template assignments",
		},
	)

	// Todo 状态迁移计数
	TodoTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_todo_transition_total",
			Help: "Todo status transitions",
		},
		[]string{"status"},
	)

	// 进度重算耗时
	ProgressRecalcDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onboarding_progress_recalc_duration_seconds",
			Help:    "Progress recalculation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	// 通知创建计数
	NotificationCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_notification_created_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)

	// Outbox 发布计数
	OutboxPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Outbox events published to the broker",
		},
		[]string{"routing_key", "status"}, // status: sent, failed, breaker_open
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementSlowQuery 记录一次慢查询
func IncrementSlowQuery(duration time.Duration) {
	DBSlowQueryCount.Inc()
	DBSlowQueryDuration.Observe(duration.Seconds())
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementAssignment 记录一次模板分配
func IncrementAssignment(result string) {
	AssignmentCount.WithLabelValues(result).Inc()
}

// AddTodosMaterialized 记录生成的 todo 数量
func AddTodosMaterialized(n int) {
	TodoMaterializedCount.Add(float64(n))
}

// IncrementTodoTransition 记录 todo 状态迁移
func IncrementTodoTransition(status string) {
	TodoTransitionCount.WithLabelValues(status).Inc()
}

// ObserveProgressRecalc 记录进度重算耗时
func ObserveProgressRecalc(duration time.Duration) {
	ProgressRecalcDuration.Observe(duration.Seconds())
}

// IncrementNotificationCreated 记录通知创建
func IncrementNotificationCreated(notificationType string) {
	NotificationCreatedCount.WithLabelValues(notificationType).Inc()
}

// IncrementOutboxPublish 记录 outbox 发布结果
func IncrementOutboxPublish(routingKey, status string) {
	OutboxPublishCount.WithLabelValues(routingKey, status).Inc()
}
