package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/stackbound/task-service/internal/platform/config"
)

// shutdownGrace bounds Shutdown when the caller's context carries no
// deadline of its own.
const shutdownGrace = 10 * time.Second

// Server runs the task API over HTTP and drains in-flight requests on
// shutdown.
type Server struct {
	inner  *http.Server
	logger *slog.Logger
}

// NewServer builds the server from config. A nil logger is replaced with a
// discarding one.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	inner := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{inner: inner, logger: logger}
}

// Start serves until Shutdown is called, returning nil on a clean stop.
func (s *Server) Start() error {
	s.logger.Info("task API listening", slog.String("addr", s.inner.Addr))

	err := s.inner.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the context deadline or shutdownGrace when there is none.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
	}

	s.logger.Info("task API shutting down")
	return s.inner.Shutdown(ctx)
}

// Addr reports the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}
