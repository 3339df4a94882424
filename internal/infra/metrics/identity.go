package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(identityCallLatency) }

var identityCallLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "identity",
	Name:      "call_duration_seconds",
	Help:      "Identity service call latency by operation and outcome kind.",
	Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3, 5},
}, []string{"operation", "outcome"})

// ObserveIdentityCall records one identity call. outcome is "ok" or an
// error kind.
func ObserveIdentityCall(operation, outcome string, elapsed time.Duration) {
	identityCallLatency.WithLabelValues(norm(operation), norm(outcome)).Observe(elapsed.Seconds())
}
