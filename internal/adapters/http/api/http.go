// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/onbscore/internal/app"
	"github.com/okian/onbscore/internal/domain/access"
	"github.com/okian/onbscore/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	Open(ctx context.Context, id access.Identity, name string, r io.Reader) (*service.Upload, error)
	Buckets(ctx context.Context, id access.Identity, sessionID, member string) (*service.View, error)
	Lookup(ctx context.Context, id access.Identity, sessionID, member string, row int) (service.Lookup, error)
	Close(ctx context.Context, id access.Identity, sessionID string) error
}

// Defaults for Server options.
const (
	DefaultMaxUploadBytes = service.DefaultMaxUploadBytes
	multipartOverhead     = 1 << 20
)

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithMaxUploadBytes bounds the multipart body of an upload.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	bucketsHandler  *BucketsHandler
	rowsHandler     *RowsHandler
	notesHandler    *NotesHandler

	origins        []string
	maxUploadBytes int64
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		origins:        []string{"*"},
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.sessionsHandler = NewSessionsHandler(deps, s.maxUploadBytes)
	s.bucketsHandler = NewBucketsHandler(deps)
	s.rowsHandler = NewRowsHandler(deps)
	s.notesHandler = NewNotesHandler()
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderEmail, HeaderRole, HeaderTeam},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Post("/sessions", MetricsMiddleware(s.sessionsHandler.HandleUpload, "sessions_upload"))
		r.Delete("/sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions_delete"))
		r.Get("/sessions/{id}/buckets", MetricsMiddleware(s.bucketsHandler.HandleBuckets, "buckets"))
		r.Get("/sessions/{id}/rows/{row}/score", MetricsMiddleware(s.rowsHandler.HandleScore, "score"))
		r.Get("/sessions/{id}/rows/{row}/deadline", MetricsMiddleware(s.rowsHandler.HandleDeadline, "deadline"))
		r.Post("/notes/recommendations", MetricsMiddleware(s.notesHandler.HandleRecommendations, "recommendations"))
	})
	return r
}

type errorResponse struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	FoundColumns []string `json:"found_columns,omitempty"`
	Missing      []string `json:"missing_columns,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
