// Package health serves liveness and readiness for the analyzer. Readiness pings the
// snapshot store and fails once the last successful event refresh is too old.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger defines the interface for checking a dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// Freshness reports when event data was last refreshed
type Freshness interface {
	LastRefresh() time.Time
}

// Check is a dependency pinged by /ready
type Check struct {
	Name string
	// Backend names the implementation behind the check, e.g. "redis" or "memory"
	Backend string
	Pinger  Pinger
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status      string            `json:"status"`
	Service     string            `json:"service"`
	Checks      map[string]string `json:"checks,omitempty"`
	Backends    map[string]string `json:"backends,omitempty"`
	SnapshotAge string            `json:"snapshot_age,omitempty"`
	Duration    string            `json:"duration,omitempty"`
}

// Server is a lightweight HTTP server for health check endpoints.
type Server struct {
	serviceName string
	version     string
	commit      string
	port        string
	server      *http.Server
	logger      *logrus.Logger
	checks      []Check
	freshness   Freshness
	maxAge      time.Duration
	now         func() time.Time
	mu          sync.RWMutex
	ready       bool
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        string
	Logger      *logrus.Logger
	Checks      []Check
	// Freshness, when set, fails /ready if no refresh happened within MaxSnapshotAge
	Freshness      Freshness
	MaxSnapshotAge time.Duration
}

// NewServer creates a new health check server.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = os.Getenv("HEALTH_PORT")
	}
	if port == "" {
		port = "8080"
	}

	return &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		commit:      cfg.Commit,
		port:        port,
		logger:      cfg.Logger,
		checks:      cfg.Checks,
		freshness:   cfg.Freshness,
		maxAge:      cfg.MaxSnapshotAge,
		now:         time.Now,
		ready:       false,
	}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the health check routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	return mux
}

// Start starts the health check server in the background.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
			}).Info("Health check server starting")
		}

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.WithError(err).Error("Health check server error")
			}
		}
	}()

	// Wait for context cancellation
	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the health check server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("Health check server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleHealth handles the /health endpoint - basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Commit:    s.commit,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Service: s.serviceName,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// handleReady handles the /ready endpoint - pings every check and verifies snapshot age.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	// Check if manually marked as not ready
	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var backends map[string]string
	for _, c := range s.checks {
		if c.Backend != "" {
			if backends == nil {
				backends = make(map[string]string)
			}
			backends[c.Name] = c.Backend
		}
		if err := c.Pinger.Ping(ctx); err != nil {
			allHealthy = false
			checks[c.Name] = fmt.Sprintf("error: %v", err)
		} else {
			checks[c.Name] = "ok"
		}
	}

	var snapshotAge string
	if s.freshness != nil {
		last := s.freshness.LastRefresh()
		switch {
		case last.IsZero():
			allHealthy = false
			checks["snapshot"] = "missing"
		case s.maxAge > 0 && s.now().Sub(last) > s.maxAge:
			allHealthy = false
			snapshotAge = s.now().Sub(last).Round(time.Second).String()
			checks["snapshot"] = "stale"
		default:
			snapshotAge = s.now().Sub(last).Round(time.Second).String()
			checks["snapshot"] = "ok"
		}
	}

	response := ReadyResponse{
		Service:     s.serviceName,
		Checks:      checks,
		Backends:    backends,
		SnapshotAge: snapshotAge,
		Duration:    time.Since(start).String(),
	}

	w.Header().Set("Content-Type", "application/json")

	if allHealthy {
		response.Status = "ok"
		w.WriteHeader(http.StatusOK)
	} else {
		response.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = json.NewEncoder(w).Encode(response)
}
