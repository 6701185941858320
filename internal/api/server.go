// Package api exposes events and stake calculations over HTTP and a websocket stream.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/kalshi-analyzer/internal/config"
	"github.com/yourusername/kalshi-analyzer/internal/metrics"
)

const requestTimeout = 30 * time.Second

// Server is the HTTP API server
type Server struct {
	cfg     *config.Config
	handler *Handler
	hub     *Hub
	logger  *logrus.Logger
	server  *http.Server
}

// NewServer creates the API server
func NewServer(cfg *config.Config, analyzer Analyzer, logger *logrus.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: NewHandler(analyzer, logger),
		hub:     NewHub(analyzer, logger, originChecker(cfg.Server.AllowedOrigins)),
		logger:  logger,
	}
}

// Hub returns the websocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.Recoverer)
	if s.logger != nil {
		r.Use(RequestLogger(s.logger))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/health", s.handler.Health)
			r.Get("/events", s.handler.ListEvents)
			r.Post("/events/calculate", s.handler.CalculateBatch)
			r.Post("/events/{id}/calculate", s.handler.CalculateEvent)
			r.Post("/calculate", s.handler.Calculate)
		})

		r.Get("/stream", s.hub.ServeWS)
	})

	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, metrics.Handler())
	}

	return r
}

// Start serves the API in the background and broadcasts snapshots until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.ListenAddress(),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.hub.Run(ctx)

	go func() {
		if s.logger != nil {
			s.logger.WithField("addr", s.server.Addr).Info("API server starting")
		}
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.WithError(err).Error("API server error")
			}
		}
	}()

	return nil
}

// Shutdown gracefully stops the API server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("API server shutting down")
	}
	return s.server.Shutdown(ctx)
}

// originChecker allows websocket upgrades from the configured CORS origins
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
