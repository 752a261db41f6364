// Package api provides the HTTP API server and handlers for the player engine.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/engine"
	"github.com/lingopod/engine/internal/http/response"
	"github.com/lingopod/engine/internal/ratelimit"
	"github.com/lingopod/engine/internal/store"
	"github.com/lingopod/engine/internal/validation"
)

// Generation endpoints fan out into minutes of polling and a paid
// transcription job per call, so they get a per-client budget.
const (
	generationRPS   = 0.5
	generationBurst = 5
)

// TranscriptLoader resolves transcripts for episodes.
type TranscriptLoader interface {
	Load(ctx context.Context, episode domain.Episode, language string, force bool) (engine.Result, error)
	Regenerate(ctx context.Context, episode domain.Episode, language string) (engine.Result, error)
}

// HistoryService proxies playback history to the authoritative store.
type HistoryService interface {
	RecordHistory(ctx context.Context, rec domain.HistoryRecord) error
	GetHistory(ctx context.Context) ([]domain.HistoryRecord, error)
}

// FeedService parses podcast feeds into episodes.
type FeedService interface {
	Parse(ctx context.Context, url string) ([]domain.Episode, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	loader    TranscriptLoader
	history   HistoryService
	feeds     FeedService
	cache     *store.TranscriptCache
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(loader TranscriptLoader, history HistoryService, feeds FeedService, cache *store.TranscriptCache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		loader:    loader,
		history:   history,
		feeds:     feeds,
		cache:     cache,
		validator: validation.New(),
		limiter:   ratelimit.New(generationRPS, generationBurst),
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transcripts", func(r chi.Router) {
			r.With(s.limitGeneration).Post("/load", s.handleLoadTranscript)
			r.With(s.limitGeneration).Post("/regenerate", s.handleRegenerateTranscript)
			r.Get("/{episodeID}", s.handlePeekTranscript)
		})

		r.Route("/playback", func(r chi.Router) {
			r.Post("/progress", s.handleRecordProgress)
			r.Get("/history", s.handleGetHistory)
		})

		r.Get("/feeds", s.handleParseFeed)
	})
}

// limitGeneration applies the per-client generation budget.
func (s *Server) limitGeneration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !s.limiter.Allow(key) {
			response.Error(w, http.StatusTooManyRequests, "Too many transcript requests, slow down", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close releases server resources.
func (s *Server) Close() {
	s.limiter.Stop()
}
