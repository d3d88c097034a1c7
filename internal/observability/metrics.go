package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squadup_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RateLimitRejections counts requests rejected by the Redis limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squadup_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter by resource",
	}, []string{"resource"})

	// RelationshipMutations counts relationship mutations by operation and outcome code.
	RelationshipMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squadup_relationship_mutations_total",
		Help: "Relationship mutations by operation and result code",
	}, []string{"operation", "code"})

	// NotificationSourceFailures counts inbox sources that degraded to empty.
	NotificationSourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squadup_notification_source_failures_total",
		Help: "Notification aggregation sources that failed and were treated as empty",
	}, []string{"source"})

	// NotificationAggregationLatency observes end-to-end inbox aggregation time.
	NotificationAggregationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "squadup_notification_aggregation_seconds",
		Help:    "Latency of pending notification aggregation",
		Buckets: prometheus.DefBuckets,
	})

	// TriageOutcomes counts triage classification results.
	TriageOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squadup_triage_outcomes_total",
		Help: "Support triage outcomes by classifier and result",
	}, []string{"classifier", "result"})

	// CallableInvocations counts callable function invocations by name and wire code.
	CallableInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squadup_callable_invocations_total",
		Help: "Callable function invocations by function and result code",
	}, []string{"function", "code"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "squadup_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squadup_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
