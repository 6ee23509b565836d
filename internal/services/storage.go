package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/assignment-grader/internal/models"
)

var ErrUnsupportedUpload = errors.New("unsupported file type, expected .docx, .pdf or .zip")

type StorageService interface {
	SaveUpload(file *multipart.FileHeader) (string, string, error)
	ReadFile(path string) ([]byte, error)
	SaveReport(name string, data []byte) (string, error)
	DeleteFile(path string) error
	EnsureDirs() error
}

type storageService struct {
	uploadPath string
	reportPath string
}

func NewStorageService(uploadPath, reportPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
		reportPath: reportPath,
	}
}

func (s *storageService) EnsureDirs() error {
	for _, dir := range []string{s.uploadPath, s.reportPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SaveUpload stores an uploaded submission under a unique name and returns
// that name with the full path.
func (s *storageService) SaveUpload(file *multipart.FileHeader) (string, string, error) {
	if models.DetectFormat(file.Filename) == models.FormatUnknown {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedUpload, file.Filename)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	uniqueFilename := fmt.Sprintf("submission_%s%s", uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if err := writeFile(filePath, src); err != nil {
		return "", "", err
	}

	return uniqueFilename, filePath, nil
}

// writeFile copies src to path and leaves nothing behind when the copy fails.
func writeFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(path)
		return fmt.Errorf("failed to save file: %w", copyErr)
	}
	return nil
}

func (s *storageService) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// SaveReport writes a rendered report and returns its path.
func (s *storageService) SaveReport(name string, data []byte) (string, error) {
	path := filepath.Join(s.reportPath, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (s *storageService) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
