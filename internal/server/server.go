// Package server exposes the meeting assistant over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"meetslot/internal/assistant"
	"meetslot/internal/metrics"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Scheduler handles meeting requests.
type Scheduler interface {
	Schedule(ctx context.Context, req assistant.MeetingRequest) (*assistant.MeetingResponse, error)
}

// Options tunes the HTTP server.
type Options struct {
	// RateLimitPerMin is the per-client request budget; zero disables limiting.
	RateLimitPerMin int
	// Now stamps invites and health responses. Defaults to time.Now.
	Now func() time.Time
}

// Server serves the assistant's HTTP API.
type Server struct {
	logger    *slog.Logger
	scheduler Scheduler
	opts      Options
	router    *gin.Engine
}

// New creates a Server and registers its routes.
func New(logger *slog.Logger, scheduler Scheduler, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{logger: logger, scheduler: scheduler, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog(logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length", processTimeHeader},
		MaxAge:          12 * time.Hour,
	}))
	if opts.RateLimitPerMin > 0 {
		r.Use(rateLimit(logger, newLimiterStore(opts.RateLimitPerMin)))
	}

	r.POST("/your_meeting_assistant", s.handleSchedule)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server stopped gracefully")
	return nil
}
