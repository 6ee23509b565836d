package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"alfredoptarigan/assignment-grader/internal/models"
)

type ArchiveExpander interface {
	Expand(archive models.RawSubmission) ([]models.RawSubmission, error)
}

type archiveExpander struct {
	maxEntrySize int64
}

// NewArchiveExpander returns an expander that skips entries larger than
// maxEntrySize bytes. Zero disables the limit.
func NewArchiveExpander(maxEntrySize int64) ArchiveExpander {
	return &archiveExpander{maxEntrySize: maxEntrySize}
}

// Expand flattens a zip into its document entries, at any depth. Entries that
// are not .docx or .pdf are dropped.
func (a *archiveExpander) Expand(archive models.RawSubmission) ([]models.RawSubmission, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive.Data), int64(len(archive.Data)))
	if err != nil {
		return nil, &ArchiveError{Archive: archive.Name, Err: err}
	}

	var docs []models.RawSubmission
	for _, entry := range reader.File {
		if !a.accept(entry) {
			continue
		}

		data, err := a.readEntry(entry)
		if err != nil {
			return nil, &ArchiveError{Archive: archive.Name, Err: fmt.Errorf("entry %s: %w", entry.Name, err)}
		}

		docs = append(docs, models.RawSubmission{
			Name: path.Base(entry.Name),
			Path: path.Join(archive.Name, entry.Name),
			Data: data,
		})
	}

	return docs, nil
}

func (a *archiveExpander) accept(entry *zip.File) bool {
	if entry.FileInfo().IsDir() {
		return false
	}
	// macOS resource forks look like documents but hold no text
	if strings.HasPrefix(entry.Name, "__MACOSX/") || strings.HasPrefix(path.Base(entry.Name), "._") {
		return false
	}
	if !models.DetectFormat(entry.Name).IsDocument() {
		return false
	}
	if a.maxEntrySize > 0 && entry.UncompressedSize64 > uint64(a.maxEntrySize) {
		return false
	}
	return true
}

func (a *archiveExpander) readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if a.maxEntrySize > 0 {
		r = io.LimitReader(rc, a.maxEntrySize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if a.maxEntrySize > 0 && int64(len(data)) > a.maxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", a.maxEntrySize)
	}
	return data, nil
}
