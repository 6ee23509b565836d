package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/assignment-grader/internal/models"
)

var ErrBatchNotFound = errors.New("batch not found")

type BatchRepository interface {
	Create(job *models.BatchJob, files []models.BatchFile) error
	FindByID(id uuid.UUID) (*models.BatchJob, error)
	FindFiles(batchID uuid.UUID) ([]models.BatchFile, error)
	UpdateStatus(id uuid.UUID, status models.BatchStatus) error
	UpdateProgress(id uuid.UUID, processed, total int) error
	UpdateResult(id uuid.UUID, result *BatchResultData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int, queuedBefore time.Time) ([]models.BatchJob, error)
}

type BatchResultData struct {
	Total       int
	Dropped     int
	Warnings    []string
	RecordCount int
	Stats       models.BatchStats
	ReportPath  string
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

// Create stores the job and its files in one transaction.
func (r *batchRepository) Create(job *models.BatchJob, files []models.BatchFile) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}
		return tx.Create(&files).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

func (r *batchRepository) FindByID(id uuid.UUID) (*models.BatchJob, error) {
	var job models.BatchJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	return &job, nil
}

func (r *batchRepository) FindFiles(batchID uuid.UUID) ([]models.BatchFile, error) {
	var files []models.BatchFile
	if err := r.db.Where("batch_id = ?", batchID).Order("position ASC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to find batch files: %w", err)
	}
	return files, nil
}

func (r *batchRepository) UpdateStatus(id uuid.UUID, status models.BatchStatus) error {
	return r.update(id, map[string]interface{}{
		"status": status,
	})
}

func (r *batchRepository) UpdateProgress(id uuid.UUID, processed, total int) error {
	return r.update(id, map[string]interface{}{
		"processed": processed,
		"total":     total,
	})
}

func (r *batchRepository) UpdateResult(id uuid.UUID, data *BatchResultData) error {
	mean := data.Stats.Mean
	maxGrade := data.Stats.Max
	minGrade := data.Stats.Min

	updates := map[string]interface{}{
		"status":       models.StatusCompleted,
		"total":        data.Total,
		"processed":    data.Total,
		"dropped":      data.Dropped,
		"record_count": data.RecordCount,
		"report_path":  data.ReportPath,
	}
	if data.RecordCount > 0 {
		updates["mean_grade"] = mean
		updates["max_grade"] = maxGrade
		updates["min_grade"] = minGrade
	}

	// serializer fields are not applied through map updates, so warnings go
	// through the model.
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.updateWith(tx, id, updates); err != nil {
			return err
		}
		job := models.BatchJob{ID: id, Warnings: data.Warnings}
		return tx.Model(&job).Select("warnings").Updates(&job).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	return nil
}

func (r *batchRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
	})
}

// FindPendingJobs returns queued jobs created before the cutoff, oldest first.
func (r *batchRepository) FindPendingJobs(limit int, queuedBefore time.Time) ([]models.BatchJob, error) {
	var jobs []models.BatchJob
	err := r.db.
		Where("status = ? AND created_at < ?", models.StatusQueued, queuedBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}
	return jobs, nil
}

func (r *batchRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	if err := r.updateWith(r.db, id, updates); err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}
	return nil
}

func (r *batchRepository) updateWith(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := tx.Model(&models.BatchJob{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBatchNotFound
	}
	return nil
}
