package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	throttles  *prometheus.CounterVec
	gated      prometheus.Counter
	rewards    prometheus.Counter
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *engineMetrics
)

// Engine returns the lazily-initialised metrics registry used to record
// accounting engine activity served over RPC.
func Engine() *engineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &engineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakeshare",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total engine operations segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stakeshare",
				Subsystem: "engine",
				Name:      "operation_seconds",
				Help:      "Wall-clock latency of engine operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakeshare",
				Subsystem: "rpc",
				Name:      "throttled_total",
				Help:      "Requests rejected by the per-client rate limiter.",
			}, []string{"client"}),
			gated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakeshare",
				Subsystem: "gate",
				Name:      "withdrawals_gated_total",
				Help:      "Unstakes routed through the withdrawal-delay gate.",
			}),
			rewards: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakeshare",
				Subsystem: "engine",
				Name:      "reward_distributions_total",
				Help:      "Completed reward distribution rounds.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.latency,
			engineRegistry.throttles,
			engineRegistry.gated,
			engineRegistry.rewards,
		)
	})
	return engineRegistry
}

func normalizeMethod(method string) string {
	trimmed := strings.TrimSpace(method)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

// RecordOperation increments the operation counter for the supplied method.
func (m *engineMetrics) RecordOperation(method string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(normalizeMethod(method), outcome).Inc()
}

// ObserveLatency records how long an engine operation took.
func (m *engineMetrics) ObserveLatency(method string, start time.Time) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(normalizeMethod(method)).Observe(time.Since(start).Seconds())
}

// RecordThrottle counts a request refused by the rate limiter.
func (m *engineMetrics) RecordThrottle(client string) {
	if m == nil {
		return
	}
	if strings.TrimSpace(client) == "" {
		client = "unknown"
	}
	m.throttles.WithLabelValues(client).Inc()
}

// RecordGatedWithdrawal counts an unstake routed through the delay gate.
func (m *engineMetrics) RecordGatedWithdrawal() {
	if m == nil {
		return
	}
	m.gated.Inc()
}

// RecordRewardDistribution counts a completed reward round.
func (m *engineMetrics) RecordRewardDistribution() {
	if m == nil {
		return
	}
	m.rewards.Inc()
}
