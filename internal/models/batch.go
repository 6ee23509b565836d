package models

import (
	"time"

	"github.com/google/uuid"
)

type BatchStatus string

const (
	StatusQueued     BatchStatus = "queued"
	StatusProcessing BatchStatus = "processing"
	StatusCompleted  BatchStatus = "completed"
	StatusFailed     BatchStatus = "failed"
)

// BatchJob is the bookkeeping row for one pipeline run. Submission records are
// not stored; they only live in the rendered report.
type BatchJob struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Status       BatchStatus `gorm:"not null;default:'queued'" json:"status"`
	Total        int         `gorm:"not null;default:0" json:"total"`
	Processed    int         `gorm:"not null;default:0" json:"processed"`
	Dropped      int         `gorm:"not null;default:0" json:"dropped"`
	Warnings     []string    `gorm:"serializer:json" json:"warnings,omitempty"`
	RecordCount  int         `gorm:"not null;default:0" json:"record_count"`
	MeanGrade    *float64    `gorm:"type:decimal(5,2)" json:"mean_grade,omitempty"`
	MaxGrade     *int        `json:"max_grade,omitempty"`
	MinGrade     *int        `json:"min_grade,omitempty"`
	ReportPath   *string     `gorm:"type:text" json:"-"`
	ErrorMessage *string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Files []BatchFile `gorm:"foreignKey:BatchID" json:"-"`
}

func (BatchJob) TableName() string {
	return "batch_jobs"
}
