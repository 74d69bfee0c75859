// Package api exposes the service over HTTP and streams scan snapshots over websocket.
package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"banjocap/internal/domain"
	"banjocap/internal/observability"
)

// Backend is the service surface the API needs.
type Backend interface {
	Analyze(ctx context.Context, address string) (*domain.TokenRecord, error)
	Recommendations(ctx context.Context, address string) ([]string, error)
	StartScan(ctx context.Context, limit int) (string, error)
	CurrentScan() *domain.ScanState
	ScanRunning() bool
	Scan(ctx context.Context, scanID string) (*domain.ScanState, error)
	Subscribe() (<-chan *domain.ScanState, func())
	Providers() map[string]string
}

// Options configures a Server.
type Options struct {
	Logger zerolog.Logger

	// ScanContext bounds scans started over HTTP. Defaults to context.Background.
	ScanContext context.Context

	// RequestTimeout bounds synchronous handlers (analysis). Zero disables it.
	RequestTimeout time.Duration
}

// Server routes HTTP requests to a Backend.
type Server struct {
	backend  Backend
	router   *mux.Router
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	scanCtx        context.Context
	requestTimeout time.Duration
	started        time.Time

	streamClients atomic.Int64
}

// NewServer creates a Server with all routes registered.
func NewServer(backend Backend, opts Options) *Server {
	if opts.ScanContext == nil {
		opts.ScanContext = context.Background()
	}
	s := &Server{
		backend:        backend,
		router:         mux.NewRouter(),
		logger:         opts.Logger.With().Str("component", "api").Logger(),
		upgrader:       websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		scanCtx:        opts.ScanContext,
		requestTimeout: opts.RequestTimeout,
		started:        time.Now(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.router.HandleFunc("/tokens/{address}", s.handleAnalyze).Methods(http.MethodGet)
	s.router.HandleFunc("/tokens/{address}/recommendations", s.handleRecommendations).Methods(http.MethodGet)

	// Fixed paths first: {id} would otherwise match them.
	s.router.HandleFunc("/scans", s.handleStartScan).Methods(http.MethodPost)
	s.router.HandleFunc("/scans/current", s.handleCurrentScan).Methods(http.MethodGet)
	s.router.HandleFunc("/scans/stream", s.handleStream).Methods(http.MethodGet)
	s.router.HandleFunc("/scans/{id}", s.handleGetScan).Methods(http.MethodGet)
	s.router.HandleFunc("/scans/{id}/report", s.handleScanReport).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "")
	})
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		observability.RecordHTTPRequest(route, rec.status)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// statusRecorder captures the response status and keeps websocket upgrades working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
