package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/assignment-grader/internal/models"
	"alfredoptarigan/assignment-grader/internal/repositories"
)

type ResultHandler struct {
	batchRepo repositories.BatchRepository
}

func NewResultHandler(batchRepo repositories.BatchRepository) *ResultHandler {
	return &ResultHandler{
		batchRepo: batchRepo,
	}
}

// HandleGetBatch handles GET /batches/:id
func (h *ResultHandler) HandleGetBatch(c *fiber.Ctx) error {
	job, err := h.findBatch(c)
	if err != nil {
		return err
	}

	response := models.BatchStatusResponse{
		ID:     job.ID.String(),
		Status: string(job.Status),
		Progress: models.Progress{
			Processed: job.Processed,
			Total:     job.Total,
		},
		Dropped:  job.Dropped,
		Warnings: job.Warnings,
	}

	if job.Status == models.StatusCompleted {
		stats := &models.Statistics{Count: job.RecordCount}
		if job.MeanGrade != nil {
			stats.Mean = *job.MeanGrade
		}
		if job.MaxGrade != nil {
			stats.Max = *job.MaxGrade
		}
		if job.MinGrade != nil {
			stats.Min = *job.MinGrade
		}
		response.Statistics = stats
		if job.ReportPath != nil {
			response.ReportURL = c.Path() + "/report"
		}
	}

	if job.Status == models.StatusFailed && job.ErrorMessage != nil {
		response.ErrorMessage = job.ErrorMessage
	}

	return c.JSON(response)
}

// HandleDownloadReport handles GET /batches/:id/report
func (h *ResultHandler) HandleDownloadReport(c *fiber.Ctx) error {
	job, err := h.findBatch(c)
	if err != nil {
		return err
	}

	if job.Status != models.StatusCompleted || job.ReportPath == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "Report is not ready",
			"status": string(job.Status),
		})
	}

	// stored as <batch id>_<report name>
	name := strings.TrimPrefix(filepath.Base(*job.ReportPath), job.ID.String()+"_")
	return c.Download(*job.ReportPath, name)
}

// findBatch answers with a *fiber.Error the app error handler renders.
func (h *ResultHandler) findBatch(c *fiber.Ctx) (*models.BatchJob, error) {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid batch ID format")
	}

	job, err := h.batchRepo.FindByID(batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrBatchNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Batch not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load batch")
	}
	return job, nil
}
