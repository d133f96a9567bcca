// Package api exposes a DataSource over HTTP with a chi router.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"todo/internal/logging"
	"todo/internal/service"
)

const (
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 5 * time.Second
)

// NewRouter builds the HTTP routes over svc.
func NewRouter(svc service.DataSource, log *logrus.Entry) http.Handler {
	if log == nil {
		log = logging.Discard()
	}
	h := NewTaskHandler(svc)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", Health)
	r.Get("/statistics", h.Statistics)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Delete("/", h.DeleteAllTasks)
		r.Post("/refresh", h.RefreshTasks)
		r.Post("/clear-completed", h.ClearCompletedTasks)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Put("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
			r.Post("/complete", h.CompleteTask)
			r.Post("/activate", h.ActivateTask)
		})
	})

	return r
}

// requestLogger stores a request-scoped logger in the context and logs each
// completed request at debug level.
func requestLogger(base *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := base.WithFields(logrus.Fields{
				"request_id": chimiddleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(logging.WithContext(r.Context(), log)))

			log.WithFields(logrus.Fields{
				"status_code": ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
			}).Debug("request completed")
		})
	}
}

// Server serves the API until its context is cancelled.
type Server struct {
	addr   string
	server *http.Server
	log    *logrus.Entry
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, svc service.DataSource, log *logrus.Entry) *Server {
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithField("component", "api")
	return &Server{
		addr: addr,
		log:  log,
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(svc, log),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("starting server")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("server context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server shutdown completed")
	return nil
}
