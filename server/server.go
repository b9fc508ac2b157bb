// Package server hosts the local HTTP API the desktop shell connects to.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ramify-app/ramify/internal/profile"
	"github.com/ramify-app/ramify/server/middleware"
	apiv1 "github.com/ramify-app/ramify/server/router/api/v1"
	"github.com/ramify-app/ramify/store"
)

// Server wraps the echo instance with the engine's profile and store.
type Server struct {
	e *echo.Echo

	Profile *profile.Profile
	Store   *store.Store
}

// NewServer assembles the echo instance: recovery, CORS for the shell's
// renderer origin, request logging, then the v1 API routes.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		e:       e,
		Profile: profile,
		Store:   store,
	}

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger(slog.Default()))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiV1Service := apiv1.NewAPIV1Service(profile, store)
	apiV1Service.RegisterRoutes(e)
	return s, nil
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("version", s.Profile.Version))
	if err := s.e.Start(address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}
