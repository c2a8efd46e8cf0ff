package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ternarybob/greattrades/internal/app"
)

// shutdownGrace bounds how long in-flight batches may keep the process alive after a stop signal
const shutdownGrace = 30 * time.Second

// Server serves the JSON API and the /ws event stream
type Server struct {
	app    *app.App
	server *http.Server
}

// New builds the server for the application's configured host and port
func New(application *app.App) *Server {
	s := &Server{app: application}

	// No WriteTimeout: POST /api/analyze holds the response until every chart in the batch finishes
	s.server = &http.Server{
		Addr:              net.JoinHostPort(application.Config.Server.Host, fmt.Sprint(application.Config.Server.Port)),
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		s.app.Logger.Info().Str("address", s.server.Addr).Msg("HTTP server starting")
		serveErr <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.app.Logger.Info().Dur("grace", shutdownGrace).Msg("Shutting down HTTP server, waiting for running batches")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
