// Package metrics exposes Prometheus collectors for the watcher service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	watcherFetchesTotal        *prometheus.CounterVec
	watcherNotificationsTotal  *prometheus.CounterVec
	watcherPollCyclesTotal     prometheus.Counter
	watcherPollCycleSeconds    prometheus.Histogram
	watcherTrackedProducts     prometheus.Gauge
	watcherListenerCmdsTotal   *prometheus.CounterVec
	watcherListenerReconnects  prometheus.Counter
	watcherHistoryWritesFailed prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		watcherFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_fetches_total",
				Help: "Total number of product fetches, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		watcherNotificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_notifications_total",
				Help: "Total number of relay notifications, labeled by topic and outcome.",
			},
			[]string{"topic", "outcome"},
		)

		watcherPollCyclesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watcher_poll_cycles_total",
				Help: "Total number of completed poll cycles.",
			},
		)

		watcherPollCycleSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "watcher_poll_cycle_duration_seconds",
				Help:    "Histogram of poll cycle durations.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		)

		watcherTrackedProducts = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "watcher_tracked_products",
				Help: "Number of products currently in the snapshot store.",
			},
		)

		watcherListenerCmdsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_listener_commands_total",
				Help: "Total control-stream commands processed, labeled by verb and outcome.",
			},
			[]string{"verb", "outcome"},
		)

		watcherListenerReconnects = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watcher_listener_reconnects_total",
				Help: "Total control-stream reconnect attempts.",
			},
		)

		watcherHistoryWritesFailed = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watcher_history_writes_failed_total",
				Help: "Total failed writes to the price history store.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch increments the fetch counter for the given outcome.
func ObserveFetch(outcome string) {
	if watcherFetchesTotal == nil {
		return
	}
	watcherFetchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveNotification increments the notification counter.
func ObserveNotification(topic, outcome string) {
	if watcherNotificationsTotal == nil {
		return
	}
	watcherNotificationsTotal.WithLabelValues(topic, outcome).Inc()
}

// ObservePollCycle records one completed poll cycle and its duration.
func ObservePollCycle(duration time.Duration) {
	if watcherPollCyclesTotal == nil {
		return
	}
	watcherPollCyclesTotal.Inc()
	watcherPollCycleSeconds.Observe(duration.Seconds())
}

// SetTrackedProducts updates the tracked products gauge.
func SetTrackedProducts(n int) {
	if watcherTrackedProducts == nil {
		return
	}
	watcherTrackedProducts.Set(float64(n))
}

// ObserveListenerCommand increments the listener command counter.
func ObserveListenerCommand(verb, outcome string) {
	if watcherListenerCmdsTotal == nil {
		return
	}
	watcherListenerCmdsTotal.WithLabelValues(verb, outcome).Inc()
}

// ObserveListenerReconnect increments the reconnect counter.
func ObserveListenerReconnect() {
	if watcherListenerReconnects == nil {
		return
	}
	watcherListenerReconnects.Inc()
}

// ObserveHistoryWriteFailure increments the failed history write counter.
func ObserveHistoryWriteFailure() {
	if watcherHistoryWritesFailed == nil {
		return
	}
	watcherHistoryWritesFailed.Inc()
}
