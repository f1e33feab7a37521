// Package metrics implements the Metrics Sink: a pure, one-directional
// fan-in of counters/histograms/gauges with no dependency on the cache
// manager, breaker, or transport it instruments. Names and label sets
// are carried over from original_source/services/cache/src/cache_service/
// core/monitoring.py's prometheus_client metrics.
package metrics

import (
	"time"

	"github.com/YaCodeDev/GoCacheService/yathreadsafeset"
	"github.com/prometheus/client_golang/prometheus"
)

// Sink fans cache-service events into Prometheus metrics. A disabled
// Sink accepts every call as a no-op, matching monitoring.py's
// MetricsCollector.enabled guard.
type Sink struct {
	enabled  bool
	registry *prometheus.Registry

	operations       *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	hitRate          *prometheus.GaugeVec
	evictions        *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
	batchOperations  *prometheus.CounterVec
	batchSize        *prometheus.HistogramVec
	connectionPool   *prometheus.GaugeVec
	keysTotal        *prometheus.GaugeVec
	seenServices     *yathreadsafeset.ThreadSafeSet[string]
	seenBreakerPairs *yathreadsafeset.ThreadSafeSet[string]
}

// New builds a Sink. When enabled is false every method becomes a
// no-op but the returned Sink is always safe to call.
func New(enabled bool) *Sink {
	registry := prometheus.NewRegistry()

	s := &Sink{
		enabled:  enabled,
		registry: registry,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		}, []string{"operation", "status", "service"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "cache_operation_duration_seconds",
			Help: "Cache operation latency",
		}, []string{"operation", "service"}),
		hitRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_hit_rate",
			Help: "Cache hit rate percentage",
		}, []string{"service"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		}, []string{"policy", "node"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"operation", "node"}),
		batchOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_batch_operations_total",
			Help: "Total number of batch operations",
		}, []string{"operation", "status"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "cache_batch_operation_size",
			Help: "Size of batch operations",
		}, []string{"operation"}),
		connectionPool: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_connection_pool_usage",
			Help: "Connection pool usage",
		}, []string{"pool", "metric"}),
		keysTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_keys_total",
			Help: "Total number of keys in cache",
		}, []string{"node"}),
		seenServices:     yathreadsafeset.NewThreadSafeSet[string](),
		seenBreakerPairs: yathreadsafeset.NewThreadSafeSet[string](),
	}

	registry.MustRegister(
		s.operations, s.latency, s.hitRate, s.evictions,
		s.breakerState, s.batchOperations, s.batchSize,
		s.connectionPool, s.keysTotal,
	)

	return s
}

// Registry exposes the underlying registry for the /metrics HTTP handler.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// RecordOperation records a single cache operation's outcome and its
// latency.
func (s *Sink) RecordOperation(operation, status, service string, duration time.Duration) {
	if !s.enabled {
		return
	}

	s.operations.WithLabelValues(operation, status, service).Inc()
	s.latency.WithLabelValues(operation, service).Observe(duration.Seconds())

	// Lazily initialize the hit-rate gauge the first time a service is
	// seen, mirroring monitoring.py's startup loop over known services
	// without requiring a static, hardcoded service list.
	if s.seenServices.Has(service) {
		return
	}

	s.seenServices.Set(service)
	s.hitRate.WithLabelValues(service).Set(0)
}

// SetHitRate sets the current hit-rate gauge for a service (0-100).
func (s *Sink) SetHitRate(service string, rate float64) {
	if !s.enabled {
		return
	}

	s.hitRate.WithLabelValues(service).Set(rate)
}

// RecordEviction records count evictions under the given policy ("ttl"
// or "lru") for node.
func (s *Sink) RecordEviction(policy, node string, count float64) {
	if !s.enabled || count <= 0 {
		return
	}

	s.evictions.WithLabelValues(policy, node).Add(count)
}

// SetBreakerState publishes a breaker state for (operation, node) as
// 0=closed, 1=open, 2=half-open.
func (s *Sink) SetBreakerState(operation, node string, state int) {
	if !s.enabled {
		return
	}

	s.breakerState.WithLabelValues(operation, node).Set(float64(state))

	pairKey := operation + "\x00" + node
	if !s.seenBreakerPairs.Has(pairKey) {
		s.seenBreakerPairs.Set(pairKey)
	}
}

// RecordBatch records a batch operation's outcome and its item count.
func (s *Sink) RecordBatch(operation, status string, size int) {
	if !s.enabled {
		return
	}

	s.batchOperations.WithLabelValues(operation, status).Inc()
	s.batchSize.WithLabelValues(operation).Observe(float64(size))
}

// SetConnectionPoolUsage publishes a connection-pool gauge, e.g.
// SetConnectionPoolUsage("redis", "active", 4).
func (s *Sink) SetConnectionPoolUsage(pool, metric string, value float64) {
	if !s.enabled {
		return
	}

	s.connectionPool.WithLabelValues(pool, metric).Set(value)
}

// SetKeysTotal publishes the current key count for node.
func (s *Sink) SetKeysTotal(node string, count float64) {
	if !s.enabled {
		return
	}

	s.keysTotal.WithLabelValues(node).Set(count)
}
