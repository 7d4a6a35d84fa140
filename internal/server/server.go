// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the recommendation service over HTTP:
//
//	GET  /v1/{papers|authors|venues|all}?q=...   ranked page(s) for a text query
//	POST /v1/upload?kind=...                     same, with the request body as query text
//	GET  /healthz                                store liveness and record counts
//	GET  /metrics                                Prometheus exposition
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pdiddy/litscout/internal/candidates"
	"github.com/pdiddy/litscout/internal/encoder"
	"github.com/pdiddy/litscout/internal/engine"
	"github.com/pdiddy/litscout/pkg/types"
)

// ErrServiceRequired is returned when a server is built without a service.
var ErrServiceRequired = errors.New("recommendation service required")

// Health reports store liveness for /healthz.
type Health interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (candidates.Counts, error)
}

// Server serves the HTTP API.
type Server struct {
	svc       *engine.Service
	health    Health
	gatherer  prometheus.Gatherer
	limiter   *rate.Limiter
	maxUpload int64
	addr      string
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHealth enables store checks on /healthz.
func WithHealth(h Health) Option {
	return func(s *Server) { s.health = h }
}

// WithGatherer serves /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a server for svc.
func New(svc *engine.Service, cfg types.ServerConfig, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	s := &Server{
		svc:       svc,
		limiter:   NewLimiter(cfg.RateLimit, cfg.Burst),
		maxUpload: cfg.MaxUploadBytes,
		addr:      cfg.Addr,
		logger:    slog.Default(),
	}
	if s.maxUpload <= 0 {
		s.maxUpload = encoder.MaxQueryBytes
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler with middleware applied. Only the /v1
// routes are rate limited.
func (s *Server) Handler() http.Handler {
	limit := RateLimit(s.limiter)

	mux := http.NewServeMux()
	mux.Handle("GET /v1/{kind}", limit(http.HandlerFunc(s.handleSearch)))
	mux.Handle("POST /v1/upload", limit(http.HandlerFunc(s.handleUpload)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return Chain(mux,
		RequestID(),
		Recover(s.logger),
		Logger(s.logger),
	)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server starting", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	kind, err := engine.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	req, err := parseRequest(r, s.svc.Engine().DefaultParams())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Kind = kind
	req.Text = r.URL.Query().Get("q")
	s.search(w, r, req)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind, err := engine.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := parseRequest(r, s.svc.Engine().DefaultParams())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return
	}
	req.Kind = kind
	req.Text, err = encoder.PrepareText(string(body), int(s.maxUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, engine.ErrEmptyQuery.Error())
		return
	}
	s.search(w, r, req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req engine.Request) {
	res, err := s.svc.Search(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "search failed",
				"error", err,
				"request_id", RequestIDFrom(r.Context()),
			)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// healthResponse is the /healthz body.
type healthResponse struct {
	Status string             `json:"status"`
	Error  string             `json:"error,omitempty"`
	Store  *candidates.Counts `json:"store,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	if err := s.health.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	counts, err := s.health.Counts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Store: &counts})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case engine.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrEncoderRequired):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrQueryEncoding):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
