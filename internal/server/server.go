// Package server exposes the pipeline over HTTP: multipart image upload
// plus a JSON-encoded descriptor in, JSON envelope with a data-URL result
// out. The contract itself is transport-independent; this is just the
// reference binding.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/AnyUserName/pixedit/internal/config"
	"github.com/AnyUserName/pixedit/internal/executor"
	"github.com/AnyUserName/pixedit/internal/session"
)

// Server wires the executor and the session state machines behind HTTP
// handlers.
type Server struct {
	cfg  config.Config
	exec *executor.Executor
	log  *slog.Logger
	http *http.Server

	sessions  *session.Manager
	handlesMu sync.Mutex
	handles   map[string]*editSession
}

// New builds a server around the given executor.
func New(cfg config.Config, exec *executor.Executor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		exec:     exec,
		log:      log,
		sessions: session.NewManager(cfg.SessionTTL()),
		handles:  make(map[string]*editSession),
	}
	s.sessions.OnEvict(s.dropHandle)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/formats", s.handleFormats)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionState)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("POST /api/sessions/{id}/edits", s.handleSessionEdit)
	mux.HandleFunc("POST /api/sessions/{id}/undo", s.handleSessionUndo)
	mux.HandleFunc("POST /api/sessions/{id}/redo", s.handleSessionRedo)
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.handleSessionReset)
	mux.HandleFunc("POST /api/sessions/{id}/save", s.handleSessionSave)
	mux.HandleFunc("GET /api/sessions/{id}/result", s.handleSessionResult)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe runs until the context is canceled, then drains with a
// bounded shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.sessions.Close()
		return err
	case <-ctx.Done():
		s.sessions.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
