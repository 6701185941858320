package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := InitRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, GetRegistry())
}

func TestRecordCalculation(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(CalculationsTotal.WithLabelValues("zero_draw_profit"))
	hedgesBefore := testutil.ToFloat64(HedgeSubstitutionsTotal)

	RecordCalculation("zero_draw_profit", true, 0.0001)
	RecordCalculation("zero_draw_profit", false, 0.0001)

	assert.Equal(t, before+2, testutil.ToFloat64(CalculationsTotal.WithLabelValues("zero_draw_profit")))
	assert.Equal(t, hedgesBefore+1, testutil.ToFloat64(HedgeSubstitutionsTotal))
}

func TestRecordRefresh(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(EventRefreshesTotal.WithLabelValues("mock", "success"))

	RecordRefresh("mock", "success", 0.2)

	assert.Equal(t, before+1, testutil.ToFloat64(EventRefreshesTotal.WithLabelValues("mock", "success")))
}

func TestUpdateEventsAvailable(t *testing.T) {
	InitRegistry()
	UpdateEventsAvailable(3, 1700000000)

	assert.Equal(t, 3.0, testutil.ToFloat64(EventsAvailable))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(LastRefreshTimestamp))
}

func TestWebsocketGauge(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(WebsocketClients)

	WebsocketConnected()
	WebsocketConnected()
	WebsocketDisconnected()

	assert.Equal(t, before+1, testutil.ToFloat64(WebsocketClients))
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		0:   "error",
		200: "2xx",
		304: "3xx",
		429: "4xx",
		503: "5xx",
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusClass(code))
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	InitRegistry()
	RecordCircuitBreakerTrip()
	RecordUpstreamRequest("2xx", 0.1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kalshi_analyzer_circuit_breaker_trips_total")
	assert.Contains(t, rec.Body.String(), "kalshi_analyzer_upstream_requests_total")
}
