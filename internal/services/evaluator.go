package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"alfredoptarigan/assignment-grader/internal/models"
	"alfredoptarigan/assignment-grader/internal/repositories"
)

// BatchEvaluator runs a stored batch through the pipeline and records the
// outcome on the job row.
type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, batchID uuid.UUID, apiKey string) error
}

type batchEvaluator struct {
	batchRepo repositories.BatchRepository
	storage   StorageService
	pipeline  *Pipeline
	renderer  ReportRenderer
	log       zerolog.Logger
	now       func() time.Time
}

func NewBatchEvaluator(
	batchRepo repositories.BatchRepository,
	storage StorageService,
	pipeline *Pipeline,
	renderer ReportRenderer,
	log zerolog.Logger,
) BatchEvaluator {
	return &batchEvaluator{
		batchRepo: batchRepo,
		storage:   storage,
		pipeline:  pipeline,
		renderer:  renderer,
		log:       log,
		now:       time.Now,
	}
}

func (e *batchEvaluator) EvaluateBatch(ctx context.Context, batchID uuid.UUID, apiKey string) error {
	log := e.log.With().Str("batch_id", batchID.String()).Logger()

	if err := e.batchRepo.UpdateStatus(batchID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	log.Info().Msg("Starting batch evaluation")

	files, err := e.batchRepo.FindFiles(batchID)
	if err != nil {
		return e.fail(batchID, fmt.Errorf("failed to load batch files: %w", err))
	}

	inputs := make([]models.RawSubmission, 0, len(files))
	for _, f := range files {
		data, err := e.storage.ReadFile(f.FilePath)
		if err != nil {
			return e.fail(batchID, fmt.Errorf("failed to load %s: %w", f.OriginalFileName, err))
		}
		inputs = append(inputs, models.RawSubmission{
			Name: f.OriginalFileName,
			Path: f.OriginalFileName,
			Data: data,
		})
	}

	result, err := e.pipeline.Run(ctx, BatchInput{Files: inputs, APIKey: apiKey}, func(ev models.Event) {
		if ev.Kind != models.EventProgress {
			return
		}
		// progress marks a document as started; the previous one is done
		if err := e.batchRepo.UpdateProgress(batchID, ev.Index-1, ev.Total); err != nil {
			log.Warn().Err(err).Msg("Failed to record progress")
		}
	})
	if err != nil {
		var pre *PreconditionError
		if errors.As(err, &pre) {
			log.Warn().Err(err).Msg("Batch cannot start")
		}
		return e.fail(batchID, err)
	}

	buf, err := e.renderer.Render(result.Rows)
	if err != nil {
		return e.fail(batchID, fmt.Errorf("failed to render report: %w", err))
	}
	reportPath, err := e.storage.SaveReport(fmt.Sprintf("%s_%s", batchID, ReportFileName(e.now())), buf.Bytes())
	if err != nil {
		return e.fail(batchID, err)
	}

	err = e.batchRepo.UpdateResult(batchID, &repositories.BatchResultData{
		Total:       result.Total,
		Dropped:     result.Dropped,
		Warnings:    result.Warnings,
		RecordCount: len(result.Rows),
		Stats:       result.Stats,
		ReportPath:  reportPath,
	})
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	log.Info().
		Int("records", len(result.Rows)).
		Int("dropped", result.Dropped).
		Int("warnings", len(result.Warnings)).
		Msg("Batch evaluation completed")
	return nil
}

func (e *batchEvaluator) fail(batchID uuid.UUID, cause error) error {
	if err := e.batchRepo.UpdateError(batchID, cause.Error()); err != nil {
		e.log.Error().Err(err).Str("batch_id", batchID.String()).Msg("Failed to record batch error")
	}
	return cause
}
