package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "docsync", Name: "ws_active_connections", Help: "Number of currently connected websocket clients."},
	)
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docsync", Name: "ws_events_total", Help: "Number of processed inbound realtime events by type."},
		[]string{"event"},
	)
	SnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docsync", Name: "snapshots_total", Help: "Number of version snapshots created by trigger."},
		[]string{"trigger"},
	)
	SnapshotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docsync", Name: "snapshot_conflicts_total", Help: "Number of version CAS conflicts that required a retry."},
	)
	CacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docsync", Name: "cache_invalidations_total", Help: "Number of cache invalidation operations issued."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docsync", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docsync", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(ActiveConnections)
	reg.MustRegister(EventsTotal)
	reg.MustRegister(SnapshotsTotal)
	reg.MustRegister(SnapshotConflicts)
	reg.MustRegister(CacheInvalidations)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
