// Package api exposes the operational HTTP surface: health probes,
// Prometheus metrics, and read-only views of the watchlist and the
// persisted item state. It is an observation window, not a control
// plane; nothing here mutates tracker state.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfwatch/shelfwatch/internal/config"
	"github.com/shelfwatch/shelfwatch/internal/store"
	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// Server is the ops HTTP server.
type Server struct {
	echo *echo.Echo
	cfg  config.ServerConfig
	log  *slog.Logger
}

// NewServer builds the ops server with all routes registered.
func NewServer(
	cfg config.ServerConfig,
	s store.Store,
	items []domain.TrackedItem,
	log *slog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(RequestLog(log))
	e.Use(Recovery(log))

	h := newHandlers(s, items)
	e.GET("/healthz", h.healthz)
	e.GET("/readyz", h.readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/api/v1/items", h.listItems)
	e.GET("/api/v1/state", h.dumpState)

	return &Server{echo: e, cfg: cfg, log: log}
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info("ops server listening", "addr", addr)

	s.echo.Server.ReadTimeout = s.cfg.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.WriteTimeout

	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
