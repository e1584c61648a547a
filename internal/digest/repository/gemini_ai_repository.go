package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticker-digest/internal/digest/config"
	"ticker-digest/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// geminiAIRepository is an implementation of AIRepository that uses the Google Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	models         contentGenerator
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (AIRepository, error) {
	if genAiClient == nil {
		return nil, errors.New("genai client is required")
	}
	return newGeminiAIRepository(cfg, log, genAiClient.Models), nil
}

func newGeminiAIRepository(cfg *config.Config, log *logger.Logger, models contentGenerator) *geminiAIRepository {
	rpm := cfg.Gemini.MaxRequestPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	secondsPerRequest := time.Minute / time.Duration(rpm)

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		models:         models,
	}
}

// GenerateText sends a single-turn prompt and returns the text of the first candidate.
func (r *geminiAIRepository) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: failed to wait for request limit: %v", ErrSummarizeFailure, err)
	}

	if r.cfg.Gemini.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Gemini.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	start := time.Now()
	resp, err := r.models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request failed: %v", ErrSummarizeFailure, err)
	}

	text := strings.TrimSpace(resp.Text())
	r.logger.Debug("Gemini response received",
		logger.StringField("model", r.cfg.Gemini.Model),
		logger.Int64Field("elapsed_ms", time.Since(start).Milliseconds()),
		logger.IntField("length", len(text)),
	)
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned an empty response", ErrSummarizeFailure)
	}
	return text, nil
}
