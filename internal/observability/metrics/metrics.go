package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workstream_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workstream_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workstream_gateway_events_total",
		Help: "Realtime events handled, by resource, action and result",
	}, []string{"resource", "action", "result"})

	eventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workstream_gateway_event_duration_seconds",
		Help:    "Duration of realtime event handling",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "action"})

	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "workstream_gateway_active_connections",
		Help: "Currently connected realtime clients",
	})

	broadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workstream_gateway_broadcasts_total",
		Help: "List-update broadcasts published after mutations",
	}, []string{"resource", "result"})

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workstream_store_op_duration_seconds",
		Help:    "Duration of document store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	purgeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workstream_purge_operations_total",
		Help: "Soft-deleted documents permanently removed by the purge worker",
	}, []string{"resource", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveEvent records one handled realtime event.
func ObserveEvent(resource, action, result string, duration time.Duration) {
	eventsTotal.WithLabelValues(resource, action, result).Inc()
	eventDuration.WithLabelValues(resource, action).Observe(duration.Seconds())
}

// ConnectionOpened increments the active connection gauge.
func ConnectionOpened() {
	activeConnections.Inc()
}

// ConnectionClosed decrements the active connection gauge.
func ConnectionClosed() {
	activeConnections.Dec()
}

// ObserveBroadcast records the outcome of a post-mutation broadcast.
func ObserveBroadcast(resource, result string) {
	broadcastsTotal.WithLabelValues(resource, result).Inc()
}

// ObserveStoreOp records the duration and result of one store call.
func ObserveStoreOp(op, result string, duration time.Duration) {
	storeOpDuration.WithLabelValues(op, result).Observe(duration.Seconds())
}

// ObservePurge counts documents removed (or skipped) by the purge worker.
func ObservePurge(resource, result string, count int64) {
	purgeOperations.WithLabelValues(resource, result).Add(float64(count))
}
