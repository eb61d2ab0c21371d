// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carterperez-dev/socialai/internal/config"
)

// ShutdownNotifier is told when draining starts so readiness can fail
// before the listener closes.
type ShutdownNotifier interface {
	SetShutdown(shutdown bool)
}

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler ShutdownNotifier
	Logger        *slog.Logger
}

type Server struct {
	router *chi.Mux
	http   *http.Server
	health ShutdownNotifier
	logger *slog.Logger
}

func New(cfg Config) *Server {
	router := chi.NewRouter()
	router.Use(chimw.Recoverer)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.ServerConfig.Address(),
			Handler:           router,
			ReadTimeout:       cfg.ServerConfig.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.ServerConfig.WriteTimeout,
			IdleTimeout:       cfg.ServerConfig.IdleTimeout,
		},
		health: cfg.HealthHandler,
		logger: logger,
	}
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start blocks until the listener stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown flips readiness, waits drainDelay for load balancers to notice,
// then stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context, drainDelay time.Duration) error {
	if s.health != nil {
		s.health.SetShutdown(true)
	}

	s.logger.Info("draining connections", "delay", drainDelay)

	select {
	case <-time.After(drainDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
