package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the HTTP surface, the ledger transitions and the
// realtime hub. Registered on the default registry and served at /metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portaria_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portaria_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portaria_access_transitions_total",
		Help: "Access request state transitions by operation and outcome.",
	}, []string{"transition", "outcome"})

	WSSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portaria_ws_sessions",
		Help: "Currently connected dashboard sessions.",
	})

	WSRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portaria_ws_rooms",
		Help: "Rooms with at least one subscriber.",
	})

	WSPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portaria_ws_published_total",
		Help: "Room broadcasts accepted by the hub.",
	})

	WSDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portaria_ws_dropped_total",
		Help: "Per-session sends dropped because the session was slow or gone.",
	})
)
