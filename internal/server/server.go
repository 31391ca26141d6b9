// Package server exposes a store.Repository over the items HTTP API so the
// client can run against a local backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

const maxBody = 1 << 20

// Config for the dev server.
type Config struct {
	Addr   string
	Token  string // when set, requests need "Authorization: Bearer <token>"
	Logger *slog.Logger
}

type Server struct {
	cfg  Config
	repo store.Repository
	log  *slog.Logger
}

func New(cfg Config, repo store.Repository) (*Server, error) {
	if repo == nil {
		return nil, errors.New("server: missing repository")
	}
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, repo: repo, log: log.With("component", "server")}, nil
}

// Handler routes the items API.
func (s *Server) Handler() http.Handler {
	r := httprouter.New()
	r.GET("/items", s.handleList)
	r.POST("/items", s.handleCreate)
	r.PUT("/items/:id", s.handleUpdate)
	r.DELETE("/items/:id", s.handleDelete)
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	return s.withLogging(s.withAuth(r))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ------- handlers -------

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items, err := s.repo.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	it, err := s.repo.Create(r.Context(), d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, ok := parseID(w, p)
	if !ok {
		return
	}
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	it, err := s.repo.Update(r.Context(), id, d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, ok := parseID(w, p)
	if !ok {
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error("repository error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseID(w http.ResponseWriter, p httprouter.Params) (int, bool) {
	id, err := strconv.Atoi(p.ByName("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id: "+p.ByName("id"))
		return 0, false
	}
	return id, true
}

// decodeDraft reads an item body; a body id, if any, is ignored in favour of the path.
func decodeDraft(w http.ResponseWriter, r *http.Request) (model.Draft, bool) {
	defer r.Body.Close()
	var it model.Item
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(&it); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return model.Draft{}, false
	}
	d := it.Draft()
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, strings.ReplaceAll(err.Error(), "\n", "; "))
		return model.Draft{}, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ------- middleware -------

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.Token == "" {
		return next
	}
	want := "Bearer " + s.cfg.Token
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != want {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", reqID,
			"duration", time.Since(start))
	})
}
