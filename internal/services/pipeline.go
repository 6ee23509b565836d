package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/assignment-grader/internal/metrics"
	"alfredoptarigan/assignment-grader/internal/models"
)

// GeneratorFactory builds the scoring backend for one run from the caller's
// credential.
type GeneratorFactory func(ctx context.Context, apiKey string) (TextGenerator, error)

// EventHandler receives status events. Calls are serialized by the pipeline.
type EventHandler func(models.Event)

type PipelineOptions struct {
	MaxBatchSize        int
	SimilarityThreshold float64
	Concurrency         int
	Grading             GradingOptions
}

type BatchInput struct {
	Files  []models.RawSubmission
	APIKey string
}

type BatchResult struct {
	Records    []models.SubmissionRecord
	Rows       []models.ReportRow
	Stats      models.BatchStats
	Duplicates []models.DuplicatePair
	Found      int
	Total      int
	Dropped    int
	Warnings   []string
}

type Pipeline struct {
	factory   GeneratorFactory
	rubric    RubricSource
	expander  ArchiveExpander
	extractor TextExtractor
	detector  *SimilarityDetector
	opts      PipelineOptions
	log       zerolog.Logger
}

func NewPipeline(
	factory GeneratorFactory,
	rubric RubricSource,
	expander ArchiveExpander,
	extractor TextExtractor,
	opts PipelineOptions,
	log zerolog.Logger,
) *Pipeline {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 50
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		factory:   factory,
		rubric:    rubric,
		expander:  expander,
		extractor: extractor,
		detector:  NewSimilarityDetector(opts.SimilarityThreshold),
		opts:      opts,
		log:       log,
	}
}

// run carries the per-batch mutable state.
type run struct {
	mu       sync.Mutex
	onEvent  EventHandler
	warnings []string
}

func (r *run) emit(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Kind == models.EventWarning || e.Kind == models.EventTruncated {
		r.warnings = append(r.warnings, e.Message)
	}
	if r.onEvent != nil {
		r.onEvent(e)
	}
}

// Run grades a batch. Per-document failures become warnings or in-band
// comments; only a missing credential or a cancelled context fails the run.
func (p *Pipeline) Run(ctx context.Context, input BatchInput, onEvent EventHandler) (*BatchResult, error) {
	started := time.Now()

	if strings.TrimSpace(input.APIKey) == "" {
		return nil, &PreconditionError{Err: ErrMissingCredential}
	}
	generator, err := p.factory(ctx, input.APIKey)
	if err != nil {
		var pre *PreconditionError
		if errors.As(err, &pre) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to initialize grading service: %w", err)
	}
	grader := NewGradingService(generator, p.opts.Grading, p.log)

	rubric, err := p.rubric.Rubric(ctx)
	if err != nil || strings.TrimSpace(rubric) == "" {
		p.log.Warn().Err(err).Msg("Rubric source unavailable, using embedded rubric")
		rubric = DefaultRubric()
	}

	r := &run{onEvent: onEvent}
	docs := p.expand(input.Files, r)

	result := &BatchResult{Found: len(docs)}
	if len(docs) > p.opts.MaxBatchSize {
		verr := &ValidationError{Found: len(docs), Limit: p.opts.MaxBatchSize, Dropped: len(docs) - p.opts.MaxBatchSize}
		docs = docs[:p.opts.MaxBatchSize]
		result.Dropped = verr.Dropped
		metrics.ObserveDropped(verr.Dropped)
		p.log.Warn().Int("found", verr.Found).Int("dropped", verr.Dropped).Msg("Batch truncated")
		r.emit(models.Event{Kind: models.EventTruncated, Total: len(docs), Dropped: verr.Dropped, Message: verr.Error()})
	}
	result.Total = len(docs)

	slots := make([]*models.SubmissionRecord, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for idx, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.emit(models.Event{Kind: models.EventProgress, Index: idx + 1, Total: len(docs), Filename: doc.Name})
			slots[idx] = p.process(gctx, grader, rubric, doc, r)
			return nil
		})
	}
	// every extraction and grading call has finished past this point
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.SubmissionRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].FullText
	}
	pairs, err := p.detector.FindDuplicates(ctx, texts)
	if err != nil {
		return nil, err
	}
	ApplyDuplicateAnnotations(records, pairs)
	metrics.ObserveDuplicates(len(pairs))
	for _, pair := range pairs {
		p.log.Info().
			Str("file", records[pair.I].Filename).
			Str("other", records[pair.J].Filename).
			Float64("similarity", pair.Similarity).
			Msg("Near-duplicate submissions")
	}

	for i := range records {
		records[i].FullText = ""
	}

	result.Records = records
	result.Duplicates = pairs
	result.Rows = BuildReportRows(records)
	result.Stats = ComputeStats(result.Rows)
	result.Warnings = r.warnings

	metrics.ObserveBatch(time.Since(started))
	stats := result.Stats
	r.emit(models.Event{Kind: models.EventCompleted, Total: result.Total, Stats: &stats})

	p.log.Info().
		Int("records", stats.Count).
		Float64("mean", stats.Mean).
		Int("max", stats.Max).
		Int("min", stats.Min).
		Dur("elapsed", time.Since(started)).
		Msg("Batch completed")

	return result, nil
}

// expand flattens archives and drops unsupported inputs, preserving order.
func (p *Pipeline) expand(files []models.RawSubmission, r *run) []models.RawSubmission {
	var docs []models.RawSubmission
	for _, f := range files {
		switch format := f.Format(); {
		case format == models.FormatArchive:
			entries, err := p.expander.Expand(f)
			if err != nil {
				p.log.Warn().Err(err).Str("file", f.Name).Msg("Archive skipped")
				r.emit(models.Event{Kind: models.EventWarning, Filename: f.Name, Message: err.Error()})
				continue
			}
			docs = append(docs, entries...)
		case format.IsDocument():
			docs = append(docs, f)
		default:
			msg := fmt.Sprintf("unsupported file type: %s", f.Name)
			r.emit(models.Event{Kind: models.EventWarning, Filename: f.Name, Message: msg})
		}
	}
	return docs
}

// process extracts, identifies and grades one document. It returns nil when
// the document has to be skipped.
func (p *Pipeline) process(ctx context.Context, grader GradingService, rubric string, doc models.RawSubmission, r *run) *models.SubmissionRecord {
	log := p.log.With().Str("file", doc.Name).Logger()

	text, err := p.extractor.Extract(doc)
	if err != nil {
		log.Warn().Err(err).Msg("Unreadable document skipped")
		metrics.ObserveDocument(metrics.OutcomeSkipped)
		r.emit(models.Event{
			Kind:     models.EventWarning,
			Filename: doc.Name,
			Message:  fmt.Sprintf("could not read file %s: %v", doc.Name, errors.Unwrap(err)),
		})
		return nil
	}

	meta := ExtractMetadata(doc.Name, text)

	grading, err := grader.Score(ctx, text, rubric)
	if err != nil {
		log.Error().Err(err).Msg("Grading failed")
		metrics.ObserveDocument(metrics.OutcomeGradingError)
		grading = FailedGrading(err)
	} else {
		metrics.ObserveDocument(metrics.OutcomeGraded)
	}

	log.Debug().
		Str("assignment", meta.AssignmentNumber).
		Int("grade", grading.Grade).
		Msg("Document graded")

	return &models.SubmissionRecord{
		Filename:         meta.Filename,
		AssignmentNumber: meta.AssignmentNumber,
		NationalID:       meta.NationalID,
		Grade:            grading.Grade,
		Comments:         grading.CommentText(),
		FullText:         text,
	}
}
