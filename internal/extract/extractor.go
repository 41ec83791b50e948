// Package extract converts PDF and audio inputs into provenance-tagged text units.
package extract

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/transcribe"
)

// Extractor turns SourceFiles into TextUnits. Failures never abort a batch;
// they are reported on the returned ExtractionResult.
type Extractor struct {
	transcriber      transcribe.Transcriber
	logger           *zap.Logger
	tablePageNumbers bool
	tableTolerance   float64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithTranscriber sets the transcriber used for audio files.
func WithTranscriber(t transcribe.Transcriber) Option {
	return func(e *Extractor) {
		e.transcriber = t
	}
}

// WithTablePageNumbers tags table units with the page they were detected on.
func WithTablePageNumbers(enabled bool) Option {
	return func(e *Extractor) {
		e.tablePageNumbers = enabled
	}
}

// WithTableTolerance sets the column alignment tolerance in PDF points.
func WithTableTolerance(points float64) Option {
	return func(e *Extractor) {
		if points > 0 {
			e.tableTolerance = points
		}
	}
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		logger:         zap.NewNop(),
		tableTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract extracts every unit it can from src.
func (e *Extractor) Extract(ctx context.Context, src models.SourceFile) *models.ExtractionResult {
	res := &models.ExtractionResult{Source: src}
	switch src.Kind {
	case models.KindPDF:
		e.extractPDF(src, res)
	case models.KindAudio:
		e.extractAudio(ctx, src, res)
	default:
		res.Skipped = true
		e.logger.Info("skipping unsupported file",
			zap.String("path", src.Path),
			zap.String("label", src.Label))
		return res
	}

	for _, f := range res.Failures {
		e.logger.Warn("extraction step failed",
			zap.String("path", src.Path),
			zap.String("step", string(f.Step)),
			zap.Error(f.Err))
	}
	e.logger.Debug("extracted file",
		zap.String("path", src.Path),
		zap.String("kind", string(src.Kind)),
		zap.Int("units", len(res.Units)))
	return res
}

// ExtractAll extracts files in order. It stops early only when ctx is done.
func (e *Extractor) ExtractAll(ctx context.Context, files []models.SourceFile) ([]*models.ExtractionResult, error) {
	results := make([]*models.ExtractionResult, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, e.Extract(ctx, f))
	}
	return results, nil
}

// Units flattens the units of results, preserving order.
func Units(results []*models.ExtractionResult) []models.TextUnit {
	var out []models.TextUnit
	for _, r := range results {
		out = append(out, r.Units...)
	}
	return out
}

func newUnit(src models.SourceFile, typ models.ContentType, content string, page *int) models.TextUnit {
	return models.TextUnit{
		Content: content,
		Metadata: models.UnitMetadata{
			Source:   src.Label,
			Type:     typ,
			Page:     page,
			Filename: filepath.Base(src.Path),
		},
	}
}
