package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of open relay websocket connections",
		},
	)

	relayPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_published_total",
			Help: "Events accepted for publishing, by source",
		},
		[]string{"source"},
	)

	relayDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_delivered_total",
			Help: "Event frames written to subscriber connections",
		},
	)

	relayDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_dropped_total",
			Help: "Event frames that could not be written to a subscriber",
		},
	)
)

func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())
}

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

// RecordPublished counts a publish coming from "socket" or "trigger".
func RecordPublished(source string) {
	relayPublishedTotal.WithLabelValues(source).Inc()
}

func RecordDelivered(n int) {
	relayDeliveredTotal.Add(float64(n))
}

func RecordDropped() {
	relayDroppedTotal.Inc()
}
