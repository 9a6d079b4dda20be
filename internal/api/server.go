// Package api serves the generated library and a read-only JSON API over the
// item database.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/boothvault/asset-library/internal/search"
	"github.com/boothvault/asset-library/internal/store"
)

// Options configures a Server.
type Options struct {
	// OutputDir is served as static files at the root.
	OutputDir string
	// IndexFile is the generated page; "/" redirects to it.
	IndexFile string
	// RequestsPerSecond limits API calls per client IP; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *store.Store
	index     *search.SearchIndex
	limiter   *RateLimiter
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
	outputDir string
	indexFile string
	started   time.Time
}

// NewServer creates a new HTTP server with all routes configured.
// index may be nil when search is disabled.
func NewServer(st *store.Store, index *search.SearchIndex, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:     st,
		index:     index,
		router:    chi.NewRouter(),
		logger:    logger,
		outputDir: opts.OutputDir,
		indexFile: opts.IndexFile,
		started:   time.Now(),
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = NewRateLimiter(opts.RequestsPerSecond, opts.Burst)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Asset Library API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerItemRoutes()
	s.registerSearchRoutes()
	s.registerStaticRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown releases the rate limiter.
func (s *Server) Shutdown() error {
	if s.limiter != nil {
		return s.limiter.Shutdown()
	}
	return nil
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, "/api/", s.logger))
	}
}
