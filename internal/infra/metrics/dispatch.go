package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dispatchTotal, conversationLockContended) }

var (
	dispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Dispatched events by route (primary, step, menu, ignored), command and outcome.",
	}, []string{"route", "command", "outcome"})

	conversationLockContended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversation_lock_contended_total",
		Help:      "Events processed without the per-conversation lock because it was held.",
	})
)

func IncDispatch(route, command, outcome string) {
	dispatchTotal.WithLabelValues(norm(route), norm(command), norm(outcome)).Inc()
}

func IncLockContended() { conversationLockContended.Inc() }
