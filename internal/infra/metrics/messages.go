package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		messagesPublished,
		notificationsSent,
		busListenerPanics,
	)
}

var (
	messagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "Messages accepted on the conversation bus, by sender role.",
		},
		[]string{"sender"},
	)

	notificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications handed to the notifier adapter.",
		},
	)

	busListenerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_listener_panics_total",
			Help: "Listener panics recovered during fan-out.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncMessagePublished(sender string) {
	messagesPublished.WithLabelValues(norm(sender)).Inc()
}

func IncNotificationSent() { notificationsSent.Inc() }

func IncBusListenerPanic() { busListenerPanics.Inc() }
