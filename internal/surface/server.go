// Package surface is the thin presentation layer over a dashboard.Dashboard:
// a JSON API for browsers and a text renderer for the terminal. It only
// reads snapshots and forwards user intents.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/snapshot
//	GET  /api/users?q=
//	POST /api/select/{id}     → 202, 404 for unknown users
//	POST /api/refresh         → 202, 409 while a refresh runs
//	POST /api/upload/{kind}   → 202; multipart field "file"
//
// Intent routes accept ?wait=true to block until the work settles and
// answer with the resulting snapshot.
package surface

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"skillscope/dashboard/internal/dashboard"
	"skillscope/dashboard/internal/gateway"
	"skillscope/dashboard/internal/model"
)

const maxUploadBytes = 32 << 20

// Dashboard is the orchestration context the surface drives.
type Dashboard interface {
	Snapshot() dashboard.Snapshot
	Users(q string) []model.User
	SelectUser(id int) (<-chan struct{}, error)
	Refresh() (<-chan struct{}, bool)
	Upload(kind model.UploadKind, f gateway.File) <-chan struct{}
}

// Server serves the dashboard over HTTP.
type Server struct {
	Dash    Dashboard
	Metrics http.Handler // optional /metrics handler
	Logger  *slog.Logger
}

// Router builds the chi router for s.
func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/users", s.handleUsers)
		r.Post("/select/{id}", s.handleSelect)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/upload/{kind}", s.handleUpload)
	})
	return r
}

func (s Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = RenderText(w, s.Dash.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, s.Dash.Snapshot())
}

func (s Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Dash.Users(r.URL.Query().Get("q")))
}

func (s Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid user id %q", chi.URLParam(r, "id")))
		return
	}
	done, err := s.Dash.SelectUser(id)
	if errors.Is(err, dashboard.ErrUnknownUser) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.accepted(w, r, done)
}

func (s Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	done, started := s.Dash.Refresh()
	if !started {
		writeErr(w, http.StatusConflict, errors.New("refresh already in progress"))
		return
	}
	s.accepted(w, r, done)
}

func (s Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseUploadKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing 'file' field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	s.accepted(w, r, s.Dash.Upload(kind, gateway.File{Name: header.Filename, Data: data}))
}

// accepted answers 202, or waits for done and answers with the snapshot when asked to.
func (s Server) accepted(w http.ResponseWriter, r *http.Request, done <-chan struct{}) {
	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}
	select {
	case <-done:
		writeJSON(w, http.StatusOK, s.Dash.Snapshot())
	case <-r.Context().Done():
	}
}

func (s Server) requestLogger(next http.Handler) http.Handler {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "surface")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
