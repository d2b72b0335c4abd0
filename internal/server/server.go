// Package server exposes the post store over HTTP: HTML pages, a read-only
// JSON API, exported file downloads and static files.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/yourusername/flatblog/internal/post"
	"github.com/yourusername/flatblog/internal/telemetry"
)

// PostStore is the subset of *post.Store the handlers use.
type PostStore interface {
	List() []post.Post
	FindByID(id int) (post.Post, error)
	Create(ctx context.Context, title, content string) (post.Post, error)
	Update(ctx context.Context, id int, title, content string) (post.Post, error)
	Delete(ctx context.Context, id int) error
	Export(ctx context.Context, id int) (string, error)
}

var _ PostStore = (*post.Store)(nil)

// Options configures a Server.
type Options struct {
	// PublicDir is served as static files; its index.html replaces the
	// built-in compose page when present.
	PublicDir string

	// RequestsPerSecond and Burst limit mutating routes. Zero disables it.
	RequestsPerSecond float64
	Burst             int

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// Server routes HTTP requests to a PostStore.
type Server struct {
	store     PostStore
	publicDir string
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	mux       *http.ServeMux
}

// New creates a Server with all routes registered.
func New(store PostStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:     store,
		publicDir: opts.PublicDir,
		logger:    logger.With("component", "server"),
		metrics:   opts.Metrics,
		mux:       http.NewServeMux(),
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /{$}", s.home)
	s.handle("GET /posts", s.listPosts)
	s.handle("GET /edit/{id}", s.editForm)

	s.handleLimited("POST /new", s.createPost)
	s.handleLimited("POST /update/{id}", s.updatePost)
	s.handleLimited("GET /delete/{id}", s.deletePost)
	s.handleLimited("GET /save/{id}", s.savePost)

	s.handle("GET /api/posts", s.apiListPosts)
	s.handle("GET /api/posts/{id}", s.apiGetPost)

	s.handle("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, "ok", http.StatusOK)
	})

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	if s.publicDir != "" {
		s.mux.Handle("GET /", s.instrument("GET /", http.FileServer(http.Dir(s.publicDir))))
	}
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) handleLimited(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, s.limit(h)))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in OpenTelemetry instrumentation. With
// no tracer provider installed the wrapper is a no-op.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s, "flatblog.http")
}

// ListenConfig configures Run.
type ListenConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DrainTimeout time.Duration
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg ListenConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = 10 * time.Second
	}
	shCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	s.logger.Info("Shutting down server", "drain_timeout", drain)
	if err := srv.Shutdown(shCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
