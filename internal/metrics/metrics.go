// Package metrics provides the centralized Prometheus metrics registry for the analyzer.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kalshi_analyzer"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	CalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Total number of stake calculations by allocation policy",
	}, []string{"policy"})
	HedgeSubstitutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hedge_substitutions_total",
		Help:      "Total number of calculations where an AH0 hedge replaced the draw price",
	})
	EventRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_refreshes_total",
		Help:      "Total number of event refresh cycles by source and status",
	}, []string{"source", "status"})
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of upstream API requests by status class",
	}, []string{"status"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of upstream circuit breaker trips",
	})
)

// Gauge metrics
var (
	EventsAvailable = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_available",
		Help:      "Number of events in the current snapshot",
	})
	LastRefreshTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix time of the last successful refresh",
	})
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Number of connected snapshot stream clients",
	})
)

// Histogram metrics
var (
	CalculationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "calculation_duration_seconds",
		Help:      "Duration of a single stake calculation in seconds",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
	UpstreamRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of upstream event API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	RefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Duration of event refresh cycles in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(CalculationsTotal)
		registry.MustRegister(HedgeSubstitutionsTotal)
		registry.MustRegister(EventRefreshesTotal)
		registry.MustRegister(UpstreamRequestsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		registry.MustRegister(EventsAvailable)
		registry.MustRegister(LastRefreshTimestamp)
		registry.MustRegister(WebsocketClients)

		registry.MustRegister(CalculationDuration)
		registry.MustRegister(UpstreamRequestDuration)
		registry.MustRegister(RefreshDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordCalculation records a completed calculation.
func RecordCalculation(policy string, hedgeUsed bool, durationSeconds float64) {
	CalculationsTotal.WithLabelValues(policy).Inc()
	if hedgeUsed {
		HedgeSubstitutionsTotal.Inc()
	}
	CalculationDuration.Observe(durationSeconds)
}

// RecordRefresh records a refresh cycle. status is "success" or "error".
func RecordRefresh(source, status string, durationSeconds float64) {
	EventRefreshesTotal.WithLabelValues(source, status).Inc()
	RefreshDuration.Observe(durationSeconds)
}

// UpdateEventsAvailable sets the snapshot size and the last refresh time.
func UpdateEventsAvailable(count int, refreshedAtUnix int64) {
	EventsAvailable.Set(float64(count))
	LastRefreshTimestamp.Set(float64(refreshedAtUnix))
}

// RecordUpstreamRequest records an upstream request and its latency.
func RecordUpstreamRequest(status string, durationSeconds float64) {
	UpstreamRequestsTotal.WithLabelValues(status).Inc()
	UpstreamRequestDuration.Observe(durationSeconds)
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// WebsocketConnected increments the connected client gauge.
func WebsocketConnected() {
	WebsocketClients.Inc()
}

// WebsocketDisconnected decrements the connected client gauge.
func WebsocketDisconnected() {
	WebsocketClients.Dec()
}

// StatusClass maps an HTTP status code to a label like "2xx".
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "error"
	}
}
