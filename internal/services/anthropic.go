package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

type anthropicService struct {
	client anthropic.Client
	cfg    GenerationConfig
	log    zerolog.Logger
}

func NewAnthropicService(apiKey string, cfg GenerationConfig, log zerolog.Logger) (TextGenerator, error) {
	if apiKey == "" {
		return nil, &PreconditionError{Err: ErrMissingCredential}
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}

	return &anthropicService{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		cfg:    cfg,
		log:    log.With().Str("provider", "anthropic").Str("model", cfg.Model).Logger(),
	}, nil
}

// GenerateText implements TextGenerator.
func (a *anthropicService) GenerateText(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.cfg.Model),
		MaxTokens:   int64(a.cfg.MaxTokens),
		Temperature: anthropic.Float(float64(a.cfg.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in response (stop reason %s)", message.StopReason)
	}

	a.log.Debug().Int("response_chars", sb.Len()).Msg("Anthropic response received")
	return sb.String(), nil
}

// NewTextGenerator builds the backend named by provider. An empty key is a
// precondition failure.
func NewTextGenerator(ctx context.Context, provider, apiKey string, cfg GenerationConfig, log zerolog.Logger) (TextGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &PreconditionError{Err: ErrMissingCredential}
	}

	switch strings.ToLower(provider) {
	case "", "gemini":
		return NewGeminiService(ctx, apiKey, cfg, log)
	case "anthropic", "claude":
		return NewAnthropicService(apiKey, cfg, log)
	default:
		return nil, fmt.Errorf("unknown grading provider %q", provider)
	}
}
