package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "kalshi-analyzer", Version: "1.2.3", Port: "9999"})

	rec := serve(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, resp.Timestamp)

	rec = serve(t, s, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyRequiresSetReady(t *testing.T) {
	s := NewServer(Config{ServiceName: "kalshi-analyzer"})

	rec := serve(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = serve(t, s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyPingsChecks(t *testing.T) {
	store := &mockPinger{}
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	s := NewServer(Config{
		ServiceName: "kalshi-analyzer",
		Checks:      []Check{{Name: "event_store", Backend: "redis", Pinger: store}},
	})
	s.SetReady(true)

	rec := serve(t, s, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Checks["event_store"])
	assert.Equal(t, "redis", resp.Backends["event_store"])
	assert.Empty(t, resp.SnapshotAge)

	rec = serve(t, s, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Contains(t, resp.Checks["event_store"], "connection refused")

	store.AssertExpectations(t)
}

type fixedFreshness time.Time

func (f fixedFreshness) LastRefresh() time.Time { return time.Time(f) }

func TestReadySnapshotAge(t *testing.T) {
	now := time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		last       time.Time
		wantCode   int
		wantStatus string
		wantAge    string
	}{
		{"never refreshed", time.Time{}, http.StatusServiceUnavailable, "missing", ""},
		{"fresh", now.Add(-30 * time.Second), http.StatusOK, "ok", "30s"},
		{"stale", now.Add(-5 * time.Minute), http.StatusServiceUnavailable, "stale", "5m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{
				ServiceName:    "kalshi-analyzer",
				Freshness:      fixedFreshness(tt.last),
				MaxSnapshotAge: 3 * time.Minute,
			})
			s.now = func() time.Time { return now }
			s.SetReady(true)

			rec := serve(t, s, "/ready")
			require.Equal(t, tt.wantCode, rec.Code)
			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Checks["snapshot"])
			assert.Equal(t, tt.wantAge, resp.SnapshotAge)
		})
	}
}

func TestNewServerDefaultPort(t *testing.T) {
	t.Setenv("HEALTH_PORT", "")
	s := NewServer(Config{})
	assert.Equal(t, "8080", s.port)
}
