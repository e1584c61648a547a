package service

import (
	"context"
	"errors"
	"time"

	"ticker-digest/internal/digest/dto"
	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/entity"
	"ticker-digest/pkg/logger"
	"ticker-digest/pkg/utils"
)

// FallbackSummary is returned when the model could not be reached. It is never cached.
const FallbackSummary = "Failed to analyze the news with AI."

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Summarizer turns a headline into a short analysis, serving cached summaries first.
type Summarizer interface {
	Summarize(ctx context.Context, title, url string, lang entity.Language, maxRetries int) dto.SummaryResult
}

// NewSummarizer creates a new Summarizer. baseDelay is the wait before the second attempt; it doubles after that.
func NewSummarizer(cache repository.SummaryCacheRepository, ai repository.AIRepository, log *logger.Logger, baseDelay time.Duration) Summarizer {
	return &summarizer{
		cache:     cache,
		ai:        ai,
		logger:    log,
		baseDelay: baseDelay,
		sleep:     utils.SleepContext,
	}
}

type summarizer struct {
	cache     repository.SummaryCacheRepository
	ai        repository.AIRepository
	logger    *logger.Logger
	baseDelay time.Duration
	sleep     Sleeper
}

func (s *summarizer) Summarize(ctx context.Context, title, url string, lang entity.Language, maxRetries int) dto.SummaryResult {
	if maxRetries < 1 {
		maxRetries = 1
	}

	// A cache outage turns into a miss, and the fresh summary is not written back on this call.
	cacheUsable := true
	cached, err := s.cache.Get(ctx, url)
	switch {
	case err != nil:
		cacheUsable = false
		s.logger.Warn("Summary cache lookup failed, treating as miss",
			logger.ErrorField(err),
			logger.StringField("url", url),
			logger.Field("cache_unavailable", errors.Is(err, repository.ErrCacheUnavailable)),
		)
	case cached != nil:
		s.logger.Debug("Summary served from cache", logger.StringField("url", url))
		return dto.SummaryResult{Text: cached.ProcessedSummary, ServedFromCache: true}
	}

	prompt := repository.BuildNewsAnalysisPrompt(title, lang)
	delay := s.baseDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		text, err := s.ai.GenerateText(ctx, prompt)
		if err == nil {
			if cacheUsable {
				if err := s.cache.Put(ctx, url, text); err != nil {
					s.logger.Warn("Failed to store summary in cache", logger.ErrorField(err), logger.StringField("url", url))
				}
			}
			return dto.SummaryResult{Text: text}
		}

		s.logger.Error("Failed to generate news summary",
			logger.ErrorField(err),
			logger.StringField("url", url),
			logger.IntField("attempt", attempt),
			logger.IntField("max_attempts", maxRetries),
		)
		if attempt == maxRetries {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			s.logger.Warn("Retry backoff interrupted", logger.ErrorField(err), logger.StringField("url", url))
			break
		}
		delay *= 2
	}

	s.logger.Error("All summary attempts exhausted, using fallback", logger.StringField("url", url))
	return dto.SummaryResult{Text: FallbackSummary, Fallback: true}
}
