package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"alfredoptarigan/assignment-grader/internal/models"
)

//go:embed rubric/organizational_behavior.txt
var defaultRubric string

const rubricChunkLimit = 20

// DefaultRubric is the rubric shipped with the binary.
func DefaultRubric() string {
	return defaultRubric
}

// RubricSource supplies the rubric text sent with every grading call. The
// pipeline treats it as opaque.
type RubricSource interface {
	Rubric(ctx context.Context) (string, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type staticRubric struct {
	text string
}

func NewStaticRubric(text string) RubricSource {
	if strings.TrimSpace(text) == "" {
		text = defaultRubric
	}
	return &staticRubric{text: text}
}

func (s *staticRubric) Rubric(context.Context) (string, error) {
	return s.text, nil
}

// LoadRubricFile reads a rubric from a text or PDF file.
func LoadRubricFile(path string, pdfParser PDFParserService) (string, error) {
	if models.DetectFormat(path) == models.FormatPDF {
		content, err := pdfParser.ExtractTextFromFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read rubric: %w", err)
		}
		return content.Text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read rubric: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("rubric file is empty")
	}
	return string(data), nil
}

type vectorRubric struct {
	embedder Embedder
	store    QdrantService
	query    string
}

// NewVectorRubric retrieves rubric chunks ingested with `grader ingest-rubric`.
func NewVectorRubric(embedder Embedder, store QdrantService, query string) RubricSource {
	return &vectorRubric{
		embedder: embedder,
		store:    store,
		query:    query,
	}
}

func (v *vectorRubric) Rubric(ctx context.Context) (string, error) {
	embedding, err := v.embedder.GenerateEmbedding(ctx, v.query)
	if err != nil {
		return "", fmt.Errorf("failed to embed rubric query: %w", err)
	}

	results, err := v.store.SearchSimilar(ctx, embedding, RubricDocType, rubricChunkLimit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", errors.New("no rubric chunks in collection")
	}

	// chunks come back by score; the rubric reads in ingestion order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return FormatRubricContext(results), nil
}
