package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"alfredoptarigan/assignment-grader/internal/models"
)

const (
	MaxGrade = 100
	MinGrade = 0
)

var errEmptyResponse = errors.New("empty response from grading service")

var gradeDigits = regexp.MustCompile(`\d+`)

// GradingService scores one submission text against a rubric.
type GradingService interface {
	Score(ctx context.Context, text, rubric string) (models.GradingResult, error)
}

type GradingOptions struct {
	Timeout    time.Duration
	MaxRetries int
}

type gradingService struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	opts          GradingOptions
	log           zerolog.Logger
}

func NewGradingService(generator TextGenerator, opts GradingOptions, log zerolog.Logger) GradingService {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &gradingService{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		opts:          opts,
		log:           log,
	}
}

// Score makes one logical call (with transport retries) and parses the answer.
// Failures come back as *GradingServiceError.
func (g *gradingService) Score(ctx context.Context, text, rubric string) (models.GradingResult, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	prompt := g.promptBuilder.BuildGradingPrompt(rubric, text)
	g.log.Debug().Int("prompt_chars", len(prompt)).Msg("Sending submission for grading")

	response, err := g.generateWithRetry(ctx, prompt)
	if err != nil {
		return models.GradingResult{}, &GradingServiceError{Err: err}
	}
	if strings.TrimSpace(response) == "" {
		return models.GradingResult{}, &GradingServiceError{Err: errEmptyResponse}
	}

	return ParseGradingResponse(response), nil
}

func (g *gradingService) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= g.opts.MaxRetries; attempt++ {
		result, err := g.generator.GenerateText(ctx, prompt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("grading call abandoned: %w", ctx.Err())
		}

		if attempt < g.opts.MaxRetries {
			g.log.Warn().Err(err).Int("attempt", attempt).Msg("Grading call failed, retrying")
		}
	}

	if g.opts.MaxRetries == 1 {
		return "", lastErr
	}
	return "", fmt.Errorf("failed after %d attempts: %w", g.opts.MaxRetries, lastErr)
}

// ParseGradingResponse reads the service's free-text answer. The last line
// holds the grade (first digit run, 0 when there is none); every earlier
// non-empty line that does not start with a grade label is a comment.
func ParseGradingResponse(response string) models.GradingResult {
	lines := strings.Split(strings.TrimSpace(response), "\n")

	grade := 0
	last := strings.TrimSpace(lines[len(lines)-1])
	if digits := gradeDigits.FindString(last); digits != "" {
		if v, err := strconv.Atoi(digits); err == nil {
			grade = v
		}
	}
	grade = clampGrade(grade)

	var comments []string
	for _, line := range lines[:len(lines)-1] {
		line = strings.TrimSpace(line)
		if line == "" || hasGradeLabel(line) {
			continue
		}
		comments = append(comments, line)
	}

	if grade == MaxGrade {
		comments = nil
	}

	return models.GradingResult{Grade: grade, Comments: comments}
}

// FailedGrading is the in-band record of a scoring call that did not work.
func FailedGrading(err error) models.GradingResult {
	return models.GradingResult{
		Grade:    0,
		Comments: []string{"error: " + err.Error()},
	}
}

func hasGradeLabel(line string) bool {
	for _, label := range GradeLabels {
		if strings.HasPrefix(line, label) {
			return true
		}
	}
	return false
}

func clampGrade(grade int) int {
	if grade < MinGrade {
		return MinGrade
	}
	if grade > MaxGrade {
		return MaxGrade
	}
	return grade
}
