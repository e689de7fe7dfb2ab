// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = "127.0.0.1:8080"

	// Version is reported by /health.
	Version = "1.0.0"

	// BodyLimit caps a request: 5 files at the 10MB client ceiling plus form
	// overhead.
	BodyLimit = "12M"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks request counters. Safe for concurrent use.
type ServerStats struct {
	StartTime time.Time

	requests  atomic.Int64
	rejected  atomic.Int64
	cancelled atomic.Int64
	frames    atomic.Int64
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{StartTime: time.Now()}
}

// StatsResponse is the /stats payload.
type StatsResponse struct {
	Requests      int64   `json:"requests"`
	Rejected      int64   `json:"rejected"`
	Cancelled     int64   `json:"cancelled"`
	Frames        int64   `json:"frames"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Snapshot returns the current counters.
func (s *ServerStats) Snapshot() StatsResponse {
	return StatsResponse{
		Requests:      s.requests.Load(),
		Rejected:      s.rejected.Load(),
		Cancelled:     s.cancelled.Load(),
		Frames:        s.frames.Load(),
		UptimeSeconds: time.Since(s.StartTime).Seconds(),
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Config configures the development backend.
type Config struct {
	// Addr is the listen address (default: 127.0.0.1:8080)
	Addr string

	// FramesPerSecond paces streamed frames. Zero streams unpaced.
	FramesPerSecond float64

	// RequestLogging logs one line per request
	RequestLogging bool

	// Validators replace DefaultChain when non-nil
	Validators Chain

	// Logger (default: no-op)
	Logger *zap.Logger
}

// Server is the echo application serving the chat protocol.
type Server struct {
	config Config
	echo   *echo.Echo
	stats  *ServerStats
	logger *zap.Logger
}

// New creates a Server with routes and middleware installed.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Validators == nil {
		cfg.Validators = DefaultChain()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config: cfg,
		echo:   e,
		stats:  NewServerStats(),
		logger: logger,
	}

	e.HTTPErrorHandler = s.handleError
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Stats returns the request counters.
func (s *Server) Stats() *ServerStats {
	return s.stats
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.echo.POST("/api/chat", s.handleChat)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/stats", s.handleStats)
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: time.Since(s.stats.StartTime).Seconds(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.stats.Snapshot())
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and blocks until Shutdown.
// A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("server starting", zap.String("addr", s.config.Addr), zap.String("version", Version))
	s.echo.Server.ReadTimeout = 30 * time.Second
	s.echo.Server.IdleTimeout = 120 * time.Second

	err := s.echo.Start(s.config.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	snap := s.stats.Snapshot()
	s.logger.Info("server shutting down",
		zap.Int64("requests", snap.Requests),
		zap.Int64("frames", snap.Frames))
	return s.echo.Shutdown(ctx)
}
