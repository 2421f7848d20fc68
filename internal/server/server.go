// Package server exposes the Snapshot over HTTP: the OpenMetrics document on
// /metrics and the HTML status page on /.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nhdewitt/rabbit/internal/agent"
	"github.com/nhdewitt/rabbit/internal/config"
)

type Server struct {
	Config  config.Config
	Store   *agent.Store
	Router  *http.ServeMux
	Version string

	logger *slog.Logger
}

func New(cfg config.Config, store *agent.Store, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Config:  cfg,
		Store:   store,
		Router:  http.NewServeMux(),
		Version: version,
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("GET /{$}", s.handleIndex)
	s.Router.HandleFunc("GET /metrics", s.handleMetrics)
}

// Handler returns the router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.Router)
}

// Start listens on the configured address until ctx is cancelled, then shuts
// down gracefully. A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      40 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rabbit listening", "addr", srv.Addr, "version", s.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
