// Package bootstrap wires configuration into the services shared by the API
// server and the command line tool.
package bootstrap

import (
	"context"

	"github.com/rs/zerolog"

	"alfredoptarigan/assignment-grader/internal/config"
	"alfredoptarigan/assignment-grader/internal/services"
)

func GenerationConfig(cfg *config.Config) services.GenerationConfig {
	return services.GenerationConfig{
		Model:       cfg.Grader.Model,
		Temperature: cfg.Grader.Temperature,
		MaxTokens:   cfg.Grader.MaxTokens,
	}
}

// RubricSource picks the configured rubric. Misconfiguration degrades to the
// embedded rubric with a warning rather than failing startup.
func RubricSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) services.RubricSource {
	switch cfg.Rubric.Source {
	case "file":
		text, err := services.LoadRubricFile(cfg.Rubric.Path, services.NewPDFParserService())
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Rubric.Path).Msg("Rubric file unavailable, using embedded rubric")
			return services.NewStaticRubric("")
		}
		log.Info().Str("path", cfg.Rubric.Path).Msg("Rubric loaded from file")
		return services.NewStaticRubric(text)

	case "qdrant":
		embedder, store, err := VectorStore(ctx, cfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("Rubric store unavailable, using embedded rubric")
			return services.NewStaticRubric("")
		}
		query := services.NewPromptBuilder().BuildRubricQuery(cfg.Rubric.Course)
		return services.NewVectorRubric(embedder, store, query)

	default:
		return services.NewStaticRubric("")
	}
}

// VectorStore connects the embedder and the Qdrant collection used for rubric
// retrieval and ingestion.
func VectorStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (services.Embedder, services.QdrantService, error) {
	if cfg.Rubric.EmbeddingKey == "" {
		return nil, nil, &services.PreconditionError{Err: services.ErrMissingCredential}
	}
	embedder, err := services.NewGeminiService(ctx, cfg.Rubric.EmbeddingKey, services.GenerationConfig{}, log)
	if err != nil {
		return nil, nil, err
	}
	store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		return nil, nil, err
	}
	return embedder, store, nil
}

// Pipeline builds the grading pipeline. The credential is supplied per run.
func Pipeline(cfg *config.Config, rubric services.RubricSource, log zerolog.Logger) *services.Pipeline {
	genCfg := GenerationConfig(cfg)
	factory := func(ctx context.Context, apiKey string) (services.TextGenerator, error) {
		return services.NewTextGenerator(ctx, cfg.Grader.Provider, apiKey, genCfg, log)
	}

	return services.NewPipeline(
		factory,
		rubric,
		services.NewArchiveExpander(cfg.Storage.MaxFileSize),
		services.NewTextExtractor(services.NewPDFParserService(), services.NewDocxParserService()),
		services.PipelineOptions{
			MaxBatchSize:        cfg.Pipeline.MaxBatchSize,
			SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
			Concurrency:         cfg.Pipeline.Concurrency,
			Grading: services.GradingOptions{
				Timeout:    cfg.Grader.Timeout,
				MaxRetries: cfg.Grader.MaxRetries,
			},
		},
		log,
	)
}
