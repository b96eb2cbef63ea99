// Package core provides the HTTP chassis for crowdhook. It builds a chi router
// that serves both a standard net/http listener (local and container
// deployments) and AWS Lambda proxy integration, and applies the cross-cutting
// middleware (panic recovery, request IDs, logging, body decompression) before
// requests reach the webhook handler.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crowdhook/internal/config"
)

// RouteRegistrar mounts domain routes onto the router. Registrars are supplied
// by main so core never imports handler packages.
type RouteRegistrar func(r chi.Router)

// Server holds the chassis dependencies.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	HealthProbes []HealthProbe
	Registrars   []RouteRegistrar

	router *chi.Mux
}

// NewServer validates its inputs and prepares an empty router. Call
// MountRoutes after setting Registrars and HealthProbes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases chassis resources. The server holds no pools, so this only
// records the event.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
