package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(telegramUpdates, telegramRateLimited) }

var (
	telegramUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telegram",
		Name:      "updates_total",
		Help:      "Incoming Telegram updates by kind (message, callback, other).",
	}, []string{"kind"})

	telegramRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telegram",
		Name:      "rate_limited_total",
		Help:      "Events dropped because the conversation exceeded its rate limit.",
	})
)

func IncTelegramUpdate(kind string) { telegramUpdates.WithLabelValues(norm(kind)).Inc() }

func IncRateLimitTriggered() { telegramRateLimited.Inc() }
