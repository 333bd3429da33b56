// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"bookreview/internal/envelope"
	"bookreview/internal/logging"
)

// Server is the chi based HTTP server shared by all binaries.
type Server struct {
	name   string
	router chi.Router
	health *Health
	logger zerolog.Logger
}

// New builds a router with request id, logging, recovery and metrics
// middleware plus health and metrics endpoints.
func New(name string, logger zerolog.Logger) *Server {
	s := &Server{
		name:   name,
		router: chi.NewRouter(),
		health: NewHealth(),
		logger: logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(logger))
	s.router.Use(Recovery(logger))
	s.router.Use(Metrics(name))

	s.router.Get("/health/live", s.health.Live)
	s.router.Get("/health/ready", s.health.Ready)
	s.router.Handle("/metrics", promhttp.Handler())

	return s
}

// Routes mounts application routes behind the optional extra middleware.
func (s *Server) Routes(fn func(r chi.Router), mw ...func(http.Handler) http.Handler) {
	s.router.Group(func(r chi.Router) {
		r.Use(mw...)
		fn(r)
	})
}

func (s *Server) Health() *Health { return s.health }

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msgf("starting %s service", s.name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Recovery turns panics into a 500 envelope.
func Recovery(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.Error().
						Interface("panic", rec).
						Str("stack", string(debug.Stack())).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")
					envelope.Fail(w, http.StatusInternalServerError, "", "an internal error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
