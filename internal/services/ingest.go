package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const rubricChunkSize = 1000

// RubricIngester replaces the rubric chunks stored in the vector collection.
type RubricIngester struct {
	embedder Embedder
	store    QdrantService
	chunker  TextChunker
	log      zerolog.Logger
}

func NewRubricIngester(embedder Embedder, store QdrantService, log zerolog.Logger) *RubricIngester {
	return &RubricIngester{
		embedder: embedder,
		store:    store,
		chunker:  NewTextChunker(),
		log:      log,
	}
}

// Ingest chunks, embeds and stores text and returns the number of chunks
// written. Any failed chunk aborts the run so a partial rubric is never served.
func (r *RubricIngester) Ingest(ctx context.Context, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errors.New("rubric text is empty")
	}

	if err := r.store.InitCollection(ctx); err != nil {
		return 0, err
	}
	if err := r.store.DeleteByDocType(ctx, RubricDocType); err != nil {
		return 0, fmt.Errorf("failed to clear previous rubric: %w", err)
	}

	chunks := r.chunker.ChunkText(text, rubricChunkSize)
	r.log.Info().Int("chunks", len(chunks)).Msg("Ingesting rubric")

	for i, chunk := range chunks {
		embedding, err := r.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return i, fmt.Errorf("failed to embed chunk %d: %w", i+1, err)
		}
		if err := r.store.UpsertChunk(ctx, RubricDocType, i, chunk, embedding); err != nil {
			return i, fmt.Errorf("failed to store chunk %d: %w", i+1, err)
		}
		if (i+1)%5 == 0 || i == len(chunks)-1 {
			r.log.Debug().Int("stored", i+1).Int("total", len(chunks)).Msg("Rubric ingestion progress")
		}
	}

	return len(chunks), nil
}
