package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(stateCacheLookups, registrationsCompleted) }

var (
	// cache="credential"|"snapshot", result="hit"|"miss"
	stateCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "state",
		Name:      "cache_lookups_total",
		Help:      "Credential and snapshot cache lookups by result.",
	}, []string{"cache", "result"})

	registrationsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_completed_total",
		Help:      "Conversations that completed sign-up.",
	})
)

func IncCacheRequest(cacheName, result string) {
	stateCacheLookups.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncUsersRegistered() { registrationsCompleted.Inc() }
