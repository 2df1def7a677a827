// Package server exposes evaluation contexts over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/luacell/luacell"
	"github.com/luacell/luacell/internal/config"
	"github.com/luacell/luacell/internal/session"
)

// Server wires the session registry and the HTTP endpoint together.
type Server struct {
	config       *config.Config
	sessions     *session.Manager
	httpEndpoint *HTTPEndpoint
	wsEndpoint   *WebSocketEndpoint
	httpServer   *http.Server
}

// New creates a server from the given configuration.
func New(cfg *config.Config) *Server {
	s := &Server{config: cfg}

	s.sessions = session.NewManager(contextFactory(cfg), cfg.Session.Timeout.Duration())
	s.wsEndpoint = NewWebSocketEndpoint(cfg, s.sessions)
	s.httpEndpoint = NewHTTPEndpoint(cfg, s.sessions, s.wsEndpoint)

	return s
}

// NewContext builds a fresh evaluation context configured per cfg.Context.
func NewContext(cfg *config.Config) (*luacell.Context, error) {
	opts := []luacell.Option{
		luacell.WithLocal(cfg.Context.Local),
		luacell.WithClosed(cfg.Context.Closed),
		luacell.WithLogf(func(format string, args ...any) {
			cfg.Log(3, format, args...)
		}),
	}
	if len(cfg.Context.Libraries) > 0 {
		opts = append(opts, luacell.WithLibraries(cfg.Context.Libraries...))
	}
	if cfg.Context.Dir != "" {
		opts = append(opts, luacell.WithWorkingDir(cfg.Context.Dir))
		if cfg.Context.Reload {
			opts = append(opts, luacell.WithReload(true))
		}
	}
	return luacell.New(opts...)
}

func contextFactory(cfg *config.Config) session.ContextFactory {
	return func() (*luacell.Context, error) {
		return NewContext(cfg)
	}
}

// Log logs a message at the given verbosity level.
func (s *Server) Log(level int, format string, args ...any) {
	s.config.Log(level, format, args...)
}

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Start starts the HTTP server on the configured address and blocks
// until it stops.
func (s *Server) Start() error {
	if err := s.StartHTTP(); err != nil {
		return err
	}

	s.Log(0, "server listening on %s", s.config.Addr())

	// Block forever; Shutdown unblocks Serve in the background goroutine.
	select {}
}

// StartHTTP begins listening on the configured address. When the
// configured port is 0 the actual bound port is written back to the
// configuration so callers can discover it.
func (s *Server) StartHTTP() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Addr(),
		Handler: s.httpEndpoint,
	}

	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr(), err)
	}

	if s.config.Server.Port == 0 {
		_, portStr, err := net.SplitHostPort(listener.Addr().String())
		if err == nil {
			fmt.Sscanf(portStr, "%d", &s.config.Server.Port)
		}
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.Log(0, "http server error: %v", err)
		}
	}()

	return nil
}

// StartCleanupWorker periodically destroys sessions that have been idle
// longer than the configured timeout.
func (s *Server) StartCleanupWorker(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if n := s.sessions.CleanupInactive(); n > 0 {
				s.Log(1, "cleaned up %d inactive sessions", n)
			}
		}
	}()
}

// Shutdown stops the HTTP server and closes every live session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Log(0, "shutting down server")

	s.sessions.CloseAll()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
