package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionsStarted,
		sessionsClosed,
		sessionsRejected,
		sessionsActive,
		minutesBilled,
	)
}

var (
	sessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_started_total",
			Help: "Count of metered chat sessions started.",
		},
	)

	sessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_closed_total",
			Help: "Count of sessions closed, by reason (requested/exhausted/idle).",
		},
		[]string{"reason"},
	)

	sessionsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_rejected_total",
			Help: "Count of session starts refused for insufficient balance.",
		},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of sessions currently metering.",
		},
	)

	minutesBilled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minutes_billed_total",
			Help: "Whole minutes debited from client pools, by pool.",
		},
		[]string{"pool"}, // 'free', 'paid'
	)
)

func IncSessionStarted() { sessionsStarted.Inc() }

func IncSessionClosed(reason string) { sessionsClosed.WithLabelValues(reason).Inc() }

func IncSessionRejected() { sessionsRejected.Inc() }

func SetActiveSessions(n int) { sessionsActive.Set(float64(n)) }

func AddMinutesBilled(free, paid int) {
	minutesBilled.WithLabelValues("free").Add(float64(free))
	minutesBilled.WithLabelValues("paid").Add(float64(paid))
}
