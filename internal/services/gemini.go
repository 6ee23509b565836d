package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	geminiEmbedModel   = "text-embedding-004"
	maxEmbeddingInput  = 40000
)

// TextGenerator is the raw capability behind the grading service: one prompt
// in, one free-text answer out.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type GeminiService interface {
	TextGenerator
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// GenerationConfig is shared by every text generator backend.
type GenerationConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type geminiService struct {
	client     *genai.Client
	cfg        GenerationConfig
	embedModel string
	log        zerolog.Logger
}

func NewGeminiService(ctx context.Context, apiKey string, cfg GenerationConfig, log zerolog.Logger) (GeminiService, error) {
	if apiKey == "" {
		return nil, &PreconditionError{Err: ErrMissingCredential}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	return &geminiService{
		client:     client,
		cfg:        cfg,
		embedModel: geminiEmbedModel,
		log:        log.With().Str("provider", "gemini").Str("model", cfg.Model).Logger(),
	}, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = truncateUTF8(text, maxEmbeddingInput)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements TextGenerator.
func (g *geminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	temperature := g.cfg.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(g.cfg.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		reason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("no text content in response (finish reason %s)", reason)
	}

	g.log.Debug().Int("response_chars", len(text)).Msg("Gemini response received")
	return text, nil
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
