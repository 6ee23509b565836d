package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DocumentFormat string

const (
	FormatUnknown        DocumentFormat = ""
	FormatWordProcessing DocumentFormat = "docx"
	FormatPDF            DocumentFormat = "pdf"
	FormatArchive        DocumentFormat = "zip"
)

// DetectFormat classifies a file by its extension.
func DetectFormat(name string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return FormatWordProcessing
	case ".pdf":
		return FormatPDF
	case ".zip":
		return FormatArchive
	default:
		return FormatUnknown
	}
}

// IsDocument reports whether the format is one the text extractor can read.
func (f DocumentFormat) IsDocument() bool {
	return f == FormatWordProcessing || f == FormatPDF
}

// RawSubmission is one accepted input file. Path is where it came from: the
// upload name, or the entry path inside an archive.
type RawSubmission struct {
	Name string
	Path string
	Data []byte
}

func (r RawSubmission) Format() DocumentFormat {
	return DetectFormat(r.Name)
}

// BatchFile is an uploaded file waiting to be processed as part of a batch.
type BatchFile struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BatchID          uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	Position         int       `gorm:"not null" json:"position"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	FilePath         string    `gorm:"type:text" json:"file_path"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
}

func (BatchFile) TableName() string {
	return "batch_files"
}
