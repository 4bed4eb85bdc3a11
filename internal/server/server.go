// Package server exposes the scan engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/scan"
)

// Server is the HTTP front end over the scan orchestrator.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig

	orchestrator *scan.Orchestrator
	store        scan.Store
	batchSize    int
	logger       *zap.Logger
}

// New assembles the router and middleware chain.
func New(cfg config.ServerConfig, orchestrator *scan.Orchestrator, store scan.Store, batchSize int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:       chi.NewRouter(),
		cfg:          cfg,
		orchestrator: orchestrator,
		store:        store,
		batchSize:    batchSize,
		logger:       logger,
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(s.recovery)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusNotFound, "NOT_FOUND", "the requested resource was not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "the requested method is not allowed for this resource")
	})

	s.registerRoutes()
	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  timeoutOr(s.cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: timeoutOr(s.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  timeoutOr(s.cfg.IdleTimeout, 120*time.Second),
	}

	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func timeoutOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
