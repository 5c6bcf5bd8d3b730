package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the check-in pipeline.
var (
	CheckinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turnstile_checkins_total",
			Help: "Total number of processed presentations by result (fresh or duplicate)",
		},
		[]string{"result"},
	)

	SyncEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turnstile_sync_entries_total",
			Help: "Total number of offline batch entries by outcome (ok or error)",
		},
		[]string{"outcome"},
	)

	CounterFallbackActivations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "turnstile_counter_fallback_activations_total",
			Help: "Times the attendance counter degraded from its primary backend to the in-memory fallback",
		},
	)

	BroadcastDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "turnstile_broadcast_dropped_total",
			Help: "Count updates dropped because a subscriber's buffer was full",
		},
	)

	BroadcastSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "turnstile_broadcast_subscribers",
			Help: "Live count subscribers currently attached",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turnstile_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Register attaches all pipeline metrics to the given registerer.
// Called once from main; tests leave the metrics unregistered.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		CheckinsTotal,
		SyncEntriesTotal,
		CounterFallbackActivations,
		BroadcastDroppedTotal,
		BroadcastSubscribers,
		HTTPRequestsTotal,
	)
}
