// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wneessen/rainparade/internal/analysis"
	"github.com/wneessen/rainparade/internal/export"
	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/prediction"
	"github.com/wneessen/rainparade/internal/resolve"
	"github.com/wneessen/rainparade/internal/selection"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second
	idleTimeout  = 60 * time.Second
)

var ErrNotReady = errors.New("no analysis result installed yet")

// Backend is the part of the service the HTTP adapter drives.
type Backend interface {
	Store() *selection.Store
	Dispatcher() *analysis.Dispatcher
	Resolver() *resolve.Resolver
}

// Server exposes the selection and analysis over HTTP, next to health, readiness and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	backend    Backend
	logger     *logger.Logger
	compress   bool
}

// analysisResponse is returned by GET /analysis.
type analysisResponse struct {
	State  analysis.State  `json:"state"`
	Busy   bool            `json:"busy"`
	Result analysis.Result `json:"result"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// New returns a Server listening on addr. compress sets the default for gzip compressed
// exports, a "compress" query parameter overrides it per request.
func New(addr string, backend Backend, log *logger.Logger, compress bool) (*Server, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		backend:  backend,
		logger:   log,
		compress: compress,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/select", s.handleSelect)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/analysis", s.handleAnalysis)
	r.Get("/export/{format}", s.handleExport)
	return r
}

// Start begins listening. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the deadline of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request", slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()), slog.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if _, ok := s.backend.Dispatcher().Result(); !ok {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "not ready", Error: ErrNotReady.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}

// handleSelect applies navigation parameters to the selection. A change of coordinate or date
// starts a new analysis through the store subscribers.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sel, err := s.backend.Store().UpdateFromQuery(r.URL.Query(), s.backend.Resolver())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, resolve.ErrMalformedDate) || errors.Is(err, selection.ErrIncompleteCoordinate) ||
			errors.Is(err, selection.ErrInvalidSelection) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, statusResponse{Status: "rejected", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, _ *http.Request) {
	sel := s.backend.Store().Trigger()
	writeJSON(w, http.StatusAccepted, sel)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, _ *http.Request) {
	dispatcher := s.backend.Dispatcher()
	result, ok := dispatcher.Result()
	if !ok {
		writeJSON(w, http.StatusNotFound, statusResponse{Status: "not found", Error: ErrNotReady.Error()})
		return
	}
	w.Header().Set(prediction.RequestIDHeader, result.RequestID)
	writeJSON(w, http.StatusOK, analysisResponse{
		State:  dispatcher.State(),
		Busy:   dispatcher.Busy(),
		Result: result,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "rejected", Error: err.Error()})
		return
	}
	compress := s.compress
	if raw := r.URL.Query().Get("compress"); raw != "" {
		if compress, err = strconv.ParseBool(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, statusResponse{
				Status: "rejected",
				Error:  fmt.Sprintf("invalid compress value %q", raw),
			})
			return
		}
	}

	result, ok := s.backend.Dispatcher().Result()
	var buf bytes.Buffer
	if !ok {
		err = export.ErrNoData
	} else {
		err = export.Write(&buf, format, result.Raw, compress)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, export.ErrNoData) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, statusResponse{Status: "failed", Error: err.Error()})
		return
	}

	contentType := format.ContentType()
	if compress {
		contentType = "application/gzip"
	}
	filename := export.Filename(result.Selection.LocationLabel, result.Selection.Date, format, compress)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set(prediction.RequestIDHeader, result.RequestID)
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write export", logger.Err(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
