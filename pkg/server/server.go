package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/offload"
	"mercator-hq/callisto/pkg/processing/tokens"
	"mercator-hq/callisto/pkg/server/middleware"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/telemetry/tracing"
)

// Deps are the components served over HTTP.
type Deps struct {
	// Store serves offloaded resources. Nil disables the resource routes.
	Store offload.Store

	// Estimator backs the estimate route. Nil uses the defaults.
	Estimator *tokens.Estimator

	// Metrics is exposed at the configured metrics path when enabled.
	Metrics *metrics.Collector

	// Health serves the probes. Nil creates an empty checker.
	Health *health.Checker

	Logger *slog.Logger

	// Version information served at /version.
	Version, Commit, BuildTime string
}

// Server is the HTTP surface of callisto: offloaded resource retrieval,
// estimation, metrics and health probes.
type Server struct {
	cfg         config.ServerConfig
	metricsPath string
	deps        Deps
	logger      *slog.Logger
	handler     http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a server. cfg and metricsPath come from the configuration;
// an empty metricsPath disables the metrics route.
func New(cfg *config.ServerConfig, metricsPath string, deps Deps) *Server {
	c := config.NewDefaultConfig().Server
	if cfg != nil {
		c = *cfg
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Estimator == nil {
		deps.Estimator = tokens.NewEstimator(nil, deps.Logger)
	}
	if deps.Health == nil {
		deps.Health = health.New(0)
	}

	s := &Server{
		cfg:         c,
		metricsPath: metricsPath,
		deps:        deps,
		logger:      deps.Logger.With("component", "server"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the complete handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /health", s.deps.Health.LivenessHandler())
	s.handle(mux, "GET /ready", s.deps.Health.ReadinessHandler())
	s.handle(mux, "GET /version", health.VersionHandler(s.deps.Version, s.deps.Commit, s.deps.BuildTime))
	s.handle(mux, "POST /v1/estimate", http.HandlerFunc(s.handleEstimate))

	if s.deps.Store != nil {
		s.handle(mux, "GET /v1/resources/{id}", http.HandlerFunc(s.handleGetResource))
		s.handle(mux, "DELETE /v1/resources/{id}", http.HandlerFunc(s.handleDeleteResource))
	}
	if s.deps.Metrics != nil && s.deps.Metrics.Enabled() && s.metricsPath != "" {
		mux.Handle("GET "+s.metricsPath, s.deps.Metrics.Handler())
	}

	var h http.Handler = mux
	h = tracing.HTTPMiddleware(h)
	h = middleware.Logging(s.logger)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(s.logger)(h)
	return h
}

// handle registers h and records its request metrics under pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	if s.deps.Metrics == nil {
		mux.Handle(pattern, h)
		return
	}
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := middleware.NewStatusWriter(w)
		h.ServeHTTP(sw, r)
		s.deps.Metrics.RecordHTTPRequest(pattern, sw.Status(), time.Since(start))
	}))
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.listener = ln
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", "timeout", s.cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Addr returns the listening address, or "" before Serve.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
