package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreMutations counts committed store transitions by operation.
	StoreMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kidflix_store_mutations_total",
		Help: "Total number of committed store mutations by operation",
	}, []string{"operation"})

	// SnapshotPersistLatency records how long writing the durable snapshot takes.
	SnapshotPersistLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kidflix_snapshot_persist_latency_seconds",
		Help:    "Snapshot persistence latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"driver"})

	// SnapshotPersistErrors counts failed snapshot writes by driver.
	SnapshotPersistErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kidflix_snapshot_persist_errors_total",
		Help: "Total number of failed snapshot writes",
	}, []string{"driver"})

	// ImportedEntities counts entities appended by snapshot imports, by kind.
	ImportedEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kidflix_imported_entities_total",
		Help: "Total number of entities merged in by imports",
	}, []string{"kind"})

	// ImportFailures counts imports rejected as unparseable.
	ImportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kidflix_import_failures_total",
		Help: "Total number of rejected import blobs",
	})

	// SimulationTicks counts layout simulator iterations.
	SimulationTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kidflix_graph_simulation_ticks_total",
		Help: "Total number of force-directed layout iterations",
	})

	// QueryCacheHits counts memoized view lookups served from cache.
	QueryCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kidflix_query_cache_hits_total",
		Help: "Total number of memoized view cache hits",
	}, []string{"view"})

	// QueryCacheMisses counts memoized view lookups that recomputed.
	QueryCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kidflix_query_cache_misses_total",
		Help: "Total number of memoized view cache misses",
	}, []string{"view"})

	// NotificationChimes counts sound triggers fired on unread increases.
	NotificationChimes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kidflix_notification_chimes_total",
		Help: "Total number of notification sound triggers",
	})
)

// TrackPersist returns a function that records persistence latency when called (e.g. defer).
func TrackPersist(driver string) func() {
	start := time.Now()
	return func() {
		SnapshotPersistLatency.WithLabelValues(driver).Observe(time.Since(start).Seconds())
	}
}
