package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
)

// ErrSessionClosed is returned by Ask after Close.
var ErrSessionClosed = errors.New("session closed")

// Session is one ingested batch: its retrieval index and the answerer over it.
// Ask is safe for concurrent use; Close waits for in-flight questions.
type Session struct {
	index    *indexer.RetrievalIndex
	answerer *answer.Answerer
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Status describes a session's index.
type Status struct {
	Chunks  int                     `json:"chunks"`
	BuiltAt time.Time               `json:"built_at"`
	Sources []*storage.SourceRecord `json:"sources"`
}

func newSession(ri *indexer.RetrievalIndex, cfg config.RetrievalConfig, g generate.Generator, m *metrics.Metrics, logger *zap.Logger) *Session {
	retriever := search.NewRetriever(ri, cfg, search.WithLogger(logger))
	return &Session{
		index:    ri,
		answerer: answer.NewAnswerer(retriever, g, answer.WithLogger(logger)),
		metrics:  m,
		logger:   logger,
	}
}

// Ask answers question from the session's documents.
func (s *Session) Ask(ctx context.Context, question string) (*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	start := time.Now()
	ans, err := s.answerer.Answer(ctx, question)
	s.metrics.ObserveStage(metrics.StageAnswer, start)
	switch {
	case err == nil:
		s.metrics.ObserveQuestion(metrics.OutcomeAnswered)
	case errors.Is(err, answer.ErrNoContext):
		s.metrics.ObserveQuestion(metrics.OutcomeNoContext)
	case errors.Is(err, models.ErrEmptyQuestion):
		s.metrics.ObserveQuestion(metrics.OutcomeInvalid)
	default:
		s.metrics.ObserveQuestion(metrics.OutcomeError)
		s.logger.Error("failed to answer question", zap.Error(err))
	}
	return ans, err
}

// Status reports the session's chunk count and sources.
func (s *Session) Status(ctx context.Context) (*Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	sources, err := s.index.Store.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Chunks: s.index.Size(), BuiltAt: s.index.BuiltAt(), Sources: sources}, nil
}

// Close releases the session's index once in-flight questions finish.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}
