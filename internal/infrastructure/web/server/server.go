package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"crypto-pulse-service/internal/infrastructure/logging"
)

// Server encapsulates HTTP server configuration
type Server struct {
	httpServer *http.Server
	port       int
}

// NewServer creates a new server instance
func NewServer(handler http.Handler, port int) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		port: port,
	}
}

// Start starts the HTTP server. It returns nil after a graceful Stop.
func (s *Server) Start() error {
	ctx := context.Background()

	logging.Info(ctx, "HTTP server starting", logging.Fields{
		"port": s.port,
	})

	logging.Info(ctx, "Available endpoints", logging.Fields{
		"endpoints": []string{
			fmt.Sprintf("GET  http://localhost:%d/health", s.port),
			fmt.Sprintf("GET  http://localhost:%d/ready", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/coins?page=1&per_page=100", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/coins/bitcoin/chart?days=7", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/search?q=bitcoin", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/convert?from=bitcoin&to=eur&amount=0.5", s.port),
			fmt.Sprintf("POST http://localhost:%d/api/v1/alerts", s.port),
			fmt.Sprintf("GET  ws://localhost:%d/ws", s.port),
			fmt.Sprintf("GET  http://localhost:%d/metrics", s.port),
			fmt.Sprintf("GET  http://localhost:%d/swagger/index.html", s.port),
		},
	})

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	logging.Info(ctx, "Stopping HTTP server gracefully", logging.Fields{
		"port": s.port,
	})

	return s.httpServer.Shutdown(ctx)
}

// GetPort returns the configured port
func (s *Server) GetPort() int {
	return s.port
}
