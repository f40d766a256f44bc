package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "location_service"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	IngestsTotal        *prometheus.CounterVec
	GeofenceEventsTotal *prometheus.CounterVec
	NearbyQueriesTotal  prometheus.Counter
	DispatchedTotal     *prometheus.CounterVec
	DispatchDropsTotal  prometheus.Counter
	DispatchQueueDepth  prometheus.Gauge

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
}

// New creates and registers all metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics with a custom registry
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		IngestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingests_total",
				Help:      "Position ingests by result (ok, stale, invalid, error)",
			},
			[]string{"result"},
		),
		GeofenceEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geofence_events_total",
				Help:      "Geofence boundary crossings by type",
			},
			[]string{"type"},
		),
		NearbyQueriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nearby_queries_total",
				Help:      "Total number of nearby-user queries",
			},
		),
		DispatchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatched_events_total",
				Help:      "Outbound events handed to dispatch sinks, by event type",
			},
			[]string{"type"},
		),
		DispatchDropsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_drops_total",
				Help:      "Outbound events dropped due to a full dispatch queue",
			},
		),
		DispatchQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dispatch_queue_depth",
				Help:      "Current number of events waiting in the dispatch queue",
			},
		),
		WSConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections_active",
				Help:      "Currently open websocket sessions",
			},
		),
	}
}
