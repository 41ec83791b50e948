// Package metrics exposes Prometheus counters for ingestion and answering.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hyperjump/kotae/internal/models"
)

const namespace = "kotae"

// Pipeline stages observed by StageDuration.
const (
	StageExtract = "extract"
	StageChunk   = "chunk"
	StageIndex   = "index"
	StageAnswer  = "answer"
)

// Question outcomes observed by Questions.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoContext = "no_context"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Metrics holds the collectors registered on one registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	FilesExtracted *prometheus.CounterVec
	UnitsExtracted *prometheus.CounterVec
	ChunksIndexed  prometheus.Counter
	IndexSize      prometheus.Gauge
	Questions      *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
}

// New creates a registry with process and Go collectors plus the kotae metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		FilesExtracted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_extracted_total",
				Help:      "Input files processed, by kind and extraction status",
			},
			[]string{"kind", "status"},
		),
		UnitsExtracted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_extracted_total",
				Help:      "Text units extracted, by content type",
			},
			[]string{"type"},
		),
		ChunksIndexed: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_indexed_total",
				Help:      "Chunks added to retrieval indices",
			},
		),
		IndexSize: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_chunks",
				Help:      "Chunks in the current retrieval index",
			},
		),
		Questions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_total",
				Help:      "Questions asked, by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
	}
}

// ObserveExtraction counts files and units from one batch.
func (m *Metrics) ObserveExtraction(results []*models.ExtractionResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		m.FilesExtracted.WithLabelValues(string(r.Source.Kind), r.Status()).Inc()
		for _, u := range r.Units {
			m.UnitsExtracted.WithLabelValues(string(u.Metadata.Type)).Inc()
		}
	}
}

// ObserveIndex records a freshly built index of n chunks.
func (m *Metrics) ObserveIndex(n int) {
	if m == nil {
		return
	}
	m.ChunksIndexed.Add(float64(n))
	m.IndexSize.Set(float64(n))
}

// ObserveQuestion counts one question by outcome.
func (m *Metrics) ObserveQuestion(outcome string) {
	if m == nil {
		return
	}
	m.Questions.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
