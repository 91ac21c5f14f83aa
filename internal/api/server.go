// Package api exposes adaptive uploads, listing and cleanup over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"surge/internal/job"
	"surge/internal/logging"
	"surge/internal/sink"
)

type Config struct {
	Addr     string
	Runner   *job.Runner
	Gatherer prometheus.Gatherer
}

type Server struct {
	runner     *job.Runner
	sink       sink.Sink
	gatherer   prometheus.Gatherer
	addr       string
	router     *gin.Engine
	httpServer *http.Server
	started    time.Time
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("api: runner is required")
	}
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = logging.NewLevelWriter("INFO", "gin")
	gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")

	s := &Server{
		runner:   cfg.Runner,
		sink:     cfg.Runner.Sink(),
		gatherer: cfg.Gatherer,
		addr:     cfg.Addr,
		started:  time.Now(),
	}

	s.router = gin.New()
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(gin.Recovery())
	s.setupRoutes(s.router)
	return s, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln in the background.
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Uploads can run for minutes; no write timeout.
		IdleTimeout: 60 * time.Second,
	}
	logging.Info("Starting HTTP API server on %s (sink %s)", ln.Addr(), s.sink.Name())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server failed: %v", err)
		}
	}()

	logging.Success("HTTP API server started")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API server...")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
