// Package server provides the HTTP API for kotae.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
)

// ErrNoSession is returned when a question arrives before any batch was ingested.
var ErrNoSession = errors.New("no documents ingested")

// requestTimeout bounds a request; generation and transcription can be slow.
const requestTimeout = 10 * time.Minute

// Ingester builds a session from a batch of files.
type Ingester interface {
	Ingest(ctx context.Context, files []models.SourceFile) (*pipeline.Session, []*models.ExtractionResult, error)
}

// WatchService is the subset of watcher.Watcher used by the server.
type WatchService interface {
	Directories() []string
	AddDirectory(path string) error
	RemoveDirectory(path string) error
	Files() []string
}

// Server is the HTTP server for the kotae API. It holds at most one session;
// each ingest replaces it.
type Server struct {
	ingester Ingester
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server

	metricsHandler http.Handler
	watch          WatchService
	configPath     string
	watchConfig    *config.Config
	watchConfigMu  sync.Mutex

	mu      sync.RWMutex
	session *pipeline.Session
	ingest  sync.Mutex // serializes ingests
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithWatch enables the watch directory endpoints.
func WithWatch(w WatchService) Option {
	return func(s *Server) { s.watch = w }
}

// WithConfigPersistence saves watch directory changes back to the config file at path.
func WithConfigPersistence(path string, cfg *config.Config) Option {
	return func(s *Server) {
		s.configPath = path
		s.watchConfig = cfg
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(ingester Ingester, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ingester: ingester,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ingest", s.handleIngest)
	r.Post("/api/v1/ask", s.handleAsk)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}
	return r
}

// MetricsHandler serves the metrics gathered by g in the Prometheus text format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and closes the current session.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()
	if sess != nil {
		err = errors.Join(err, sess.Close())
	}
	return err
}

// Ingest builds a new session from files and swaps it in. The previous session
// is closed once its in-flight questions finish. On failure the current
// session stays in place.
func (s *Server) Ingest(ctx context.Context, files []models.SourceFile) ([]*models.ExtractionResult, error) {
	s.ingest.Lock()
	defer s.ingest.Unlock()

	sess, results, err := s.ingester.Ingest(ctx, files)
	if err != nil {
		return results, err
	}
	s.mu.Lock()
	old := s.session
	s.session = sess
	s.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn("failed to close previous session", zap.Error(err))
		}
	}
	return results, nil
}

// Reingest rebuilds the session from every file under the watched directories.
func (s *Server) Reingest(ctx context.Context) error {
	if s.watch == nil {
		return nil
	}
	paths := s.watch.Files()
	files := make([]models.SourceFile, len(paths))
	for i, p := range paths {
		files[i] = models.NewSourceFile(p, "")
	}
	s.logger.Info("re-ingesting watched files", zap.Int("files", len(files)))
	results, err := s.Ingest(ctx, files)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.OK() {
			s.logger.Warn("extraction incomplete", zap.String("summary", r.Summary()))
		}
	}
	return nil
}

// currentSession returns the live session or ErrNoSession.
func (s *Server) currentSession() (*pipeline.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, ErrNoSession
	}
	return s.session, nil
}
