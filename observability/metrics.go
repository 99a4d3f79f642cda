package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type rpcMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics
)

// RPCMetrics returns the lazily-initialised registry used to record JSON-RPC
// request activity.
func RPCMetrics() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dbnb",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "dbnb",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(rpcRegistry.requests, rpcRegistry.latency)
	})
	return rpcRegistry
}

// Observe records one handled request.
func (m *rpcMetrics) Observe(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}
