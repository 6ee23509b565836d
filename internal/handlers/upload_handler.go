package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"alfredoptarigan/assignment-grader/internal/models"
	"alfredoptarigan/assignment-grader/internal/repositories"
	"alfredoptarigan/assignment-grader/internal/services"
)

// APIKeyHeader carries a per-request grading credential.
const APIKeyHeader = "X-API-Key"

type UploadHandler struct {
	batchRepo      repositories.BatchRepository
	storageService services.StorageService
	worker         services.Worker
	maxFileSize    int64
	defaultAPIKey  string
	log            zerolog.Logger
}

func NewUploadHandler(
	batchRepo repositories.BatchRepository,
	storageService services.StorageService,
	worker services.Worker,
	maxFileSize int64,
	defaultAPIKey string,
	log zerolog.Logger,
) *UploadHandler {
	return &UploadHandler{
		batchRepo:      batchRepo,
		storageService: storageService,
		worker:         worker,
		maxFileSize:    maxFileSize,
		defaultAPIKey:  defaultAPIKey,
		log:            log,
	}
}

// HandleCreateBatch handles POST /batches
func (h *UploadHandler) HandleCreateBatch(c *fiber.Ctx) error {
	apiKey := strings.TrimSpace(c.Get(APIKeyHeader))
	if apiKey == "" {
		apiKey = h.defaultAPIKey
	}
	if apiKey == "" {
		return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{
			"error": "missing grading service credential, send it in the " + APIKeyHeader + " header",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files uploaded. Send .docx, .pdf or .zip files in the 'files' field.",
		})
	}

	for _, f := range uploads {
		if f.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("%s is too large. Max size: %d bytes", f.Filename, h.maxFileSize),
			})
		}
		if models.DetectFormat(f.Filename) == models.FormatUnknown {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("%s: %v", f.Filename, services.ErrUnsupportedUpload),
			})
		}
	}

	job := &models.BatchJob{
		ID:        uuid.New(),
		Status:    models.StatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	files := make([]models.BatchFile, 0, len(uploads))
	for i, f := range uploads {
		filename, filePath, err := h.storageService.SaveUpload(f)
		if err != nil {
			h.cleanup(files)
			status := fiber.StatusInternalServerError
			if errors.Is(err, services.ErrUnsupportedUpload) {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save %s: %v", f.Filename, err),
			})
		}
		files = append(files, models.BatchFile{
			ID:               uuid.New(),
			BatchID:          job.ID,
			Position:         i,
			Filename:         filename,
			OriginalFileName: f.Filename,
			FilePath:         filePath,
			CreatedAt:        time.Now(),
		})
	}

	if err := h.batchRepo.Create(job, files); err != nil {
		h.cleanup(files)
		h.log.Error().Err(err).Msg("Failed to create batch")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create batch job",
		})
	}

	h.worker.EnqueueJob(services.Job{BatchID: job.ID, APIKey: apiKey})

	return c.Status(fiber.StatusAccepted).JSON(models.CreateBatchResponse{
		ID:         job.ID.String(),
		Status:     string(models.StatusQueued),
		FilesCount: len(files),
	})
}

func (h *UploadHandler) cleanup(files []models.BatchFile) {
	for _, f := range files {
		if err := h.storageService.DeleteFile(f.FilePath); err != nil {
			h.log.Warn().Err(err).Str("file", f.FilePath).Msg("Failed to remove upload")
		}
	}
}
