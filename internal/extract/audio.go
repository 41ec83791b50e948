package extract

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
)

var errNoTranscriber = errors.New("no transcriber configured")

// extractAudio emits at most one unit holding the whole-file transcript.
func (e *Extractor) extractAudio(ctx context.Context, src models.SourceFile, res *models.ExtractionResult) {
	if e.transcriber == nil {
		res.Failures = append(res.Failures, models.StepFailure{Step: models.StepAudio, Err: errNoTranscriber})
		return
	}
	e.logger.Info("transcribing audio", zap.String("path", src.Path))
	tr, err := e.transcriber.Transcribe(ctx, src.Path)
	if err != nil {
		res.Failures = append(res.Failures, models.StepFailure{Step: models.StepAudio, Err: err})
		return
	}
	if strings.TrimSpace(tr.Text) == "" {
		return
	}
	unit := newUnit(src, models.TypeAudio, tr.Text, nil)
	if tr.Language != "" || tr.Duration > 0 {
		unit.Metadata.Extra = map[string]any{}
		if tr.Language != "" {
			unit.Metadata.Extra["language"] = tr.Language
		}
		if tr.Duration > 0 {
			unit.Metadata.Extra["duration"] = tr.Duration
		}
	}
	res.Units = append(res.Units, unit)
}
