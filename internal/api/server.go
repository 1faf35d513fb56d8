package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"namegrouper/internal/config"
	"namegrouper/internal/logging"
	"namegrouper/internal/store"
)

// Server is the HTTP front of the grouping service. It owns the router and
// the underlying http.Server; the task store is shared with whoever built it.
type Server struct {
	cfg        *config.Config
	store      *store.TaskStore
	router     *mux.Router
	httpServer *http.Server
}

// NewServer wires the routes and middleware onto a configured http.Server.
// Nothing listens until Start is called.
func NewServer(cfg *config.Config, taskStore *store.TaskStore) *Server {
	s := &Server{
		cfg:   cfg,
		store: taskStore,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}
	return s
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware, recoverMiddleware)

	r.Methods(http.MethodPost).Path("/api/grouping-tasks/").HandlerFunc(s.handleCreateTask)
	r.Methods(http.MethodGet).Path("/api/grouping-tasks/").HandlerFunc(s.handleListTasks)
	r.Methods(http.MethodGet).Path("/api/grouping-tasks/{id}/").HandlerFunc(s.handleGetTask)
	r.Methods(http.MethodPatch).Path("/api/grouping-tasks/{id}/move-name/").HandlerFunc(s.handleMoveName)
	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.handleHealth)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
	})

	return r
}

// Handler exposes the router, mostly so tests can drive the API through
// httptest without opening a real listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving requests until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	logging.API("Listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.API("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// baseURL reconstructs the externally visible origin for building resource
// URLs. A configured base URL wins; otherwise it is derived from the request
// the way a reverse proxy presents it.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.Server.BaseURL != "" {
		return s.cfg.Server.BaseURL
	}
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *Server) taskURL(r *http.Request, id string) string {
	return s.baseURL(r) + "/api/grouping-tasks/" + id + "/"
}
