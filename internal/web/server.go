// Package web serves the recommendation HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/go-image-to-song/internal/caption"
	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/quiz"
	"github.com/justestif/go-image-to-song/internal/recommend"
	"github.com/justestif/go-image-to-song/internal/search"
)

// DefaultAddr is the default server address.
const DefaultAddr = ":8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr            string
	CORSOrigins     []string
	RateLimit       int // requests per minute per IP; 0 disables
	ShutdownTimeout time.Duration
	MaxImageBytes   int
}

// Services are the domain services behind the API.
type Services struct {
	Quiz      *quiz.Service
	Recommend *recommend.Engine
	Images    *caption.Service
	Search    *search.Service

	// Checks report collaborator health on /health, keyed by name.
	Checks map[string]HealthCheck
}

// HealthCheck returns nil when a collaborator is usable.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP server for the API.
type Server struct {
	cfg      ServerConfig
	router   chi.Router
	server   *http.Server
	handlers *Handlers
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, svc Services) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = caption.MaxImageBytes
	}
	if svc.Images == nil {
		svc.Images = caption.NewService(caption.WithMaxBytes(cfg.MaxImageBytes))
	}
	if svc.Search == nil && svc.Quiz != nil {
		svc.Search = search.New(svc.Quiz.Catalog())
	}

	router := chi.NewRouter()

	s := &Server{
		cfg:      cfg,
		router:   router,
		handlers: NewHandlers(svc, cfg.MaxImageBytes),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // above the caption deadline (at most 45s)
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(recordMetrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.Health)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
		}

		r.Get("/moods", s.handlers.Moods)

		r.Get("/quiz/songs", s.handlers.QuizSongs)
		r.Post("/quiz/calculate-preferences", s.handlers.CalculatePreferences)
		r.Get("/profiles/{userID}", s.handlers.Profile)

		r.Get("/search/songs", s.handlers.SearchSongs)

		r.Post("/recommendations", s.handlers.Recommendations)
		r.Post("/images/analyze", s.handlers.AnalyzeImage)
		r.Post("/analyze-and-recommend", s.handlers.AnalyzeAndRecommend)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("starting server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logging.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logging.Info().Msg("server stopped")
	return nil
}
