package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec
	StoreParseDrops prometheus.Counter

	// Notification metrics
	NotificationsSent    *prometheus.CounterVec
	NotificationFanout   prometheus.Histogram
	MonitorScans         *prometheus.CounterVec
	MonitorItemsNotified *prometheus.CounterVec

	// Event bus metrics
	SignalsPublished *prometheus.CounterVec

	// Poller metrics
	PollTicks   prometheus.Counter
	PollChanges prometheus.Counter
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		StoreOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of record store operations",
		}, []string{"operation", "status"}),
		StoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of record store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),
		StoreParseDrops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_parse_drops_total",
			Help:      "Collections dropped to empty because their stored value failed to parse",
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications produced",
		}, []string{"type", "persisted"}),
		NotificationFanout: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_fanout_targets",
			Help:      "Number of recipients resolved per role notification",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		MonitorScans: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_scans_total",
			Help:      "Total number of monitoring scan cycles",
		}, []string{"role"}),
		MonitorItemsNotified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_items_notified_total",
			Help:      "Items that produced a notification during monitoring scans",
		}, []string{"role"}),
		SignalsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_published_total",
			Help:      "Total number of event bus signals published",
		}, []string{"signal", "origin"}),
		PollTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Total number of polling loop ticks",
		}),
		PollChanges: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_changes_total",
			Help:      "Polling ticks that observed a changed raw value",
		}),
	}
}
