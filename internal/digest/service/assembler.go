package service

import (
	"context"
	"fmt"
	"strings"

	"ticker-digest/internal/digest/config"
	"ticker-digest/internal/digest/dto"
	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/entity"
	"ticker-digest/pkg/logger"
	"ticker-digest/pkg/telegram"
	"ticker-digest/pkg/utils"
)

// DigestAssembler builds the digest message of one subscriber.
type DigestAssembler interface {
	Assemble(ctx context.Context, subscriber entity.Subscriber) dto.AssembleResult
}

type digestLabels struct {
	header      string
	source      string
	noNewsFound string
}

var labels = map[entity.Language]digestLabels{
	entity.LanguageRU: {
		header:      "Дайджест новостей для вас (%s):",
		source:      "Источник",
		noNewsFound: "Новых новостей не найдено.",
	},
	entity.LanguageEN: {
		header:      "News digest for you (%s):",
		source:      "Source",
		noNewsFound: "No new news found.",
	},
}

func labelsFor(lang entity.Language) digestLabels {
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[entity.LanguageEN]
}

// NewDigestAssembler creates a new DigestAssembler.
func NewDigestAssembler(cfg *config.Config, log *logger.Logger, newsRepo repository.NewsRepository, summarizer Summarizer) DigestAssembler {
	return &digestAssembler{
		cfg:        cfg,
		logger:     log,
		newsRepo:   newsRepo,
		summarizer: summarizer,
		sleep:      utils.SleepContext,
	}
}

type digestAssembler struct {
	cfg        *config.Config
	logger     *logger.Logger
	newsRepo   repository.NewsRepository
	summarizer Summarizer
	sleep      Sleeper
}

// Assemble renders one section per ticker in the subscriber's order. Tickers without
// any summarized item get a placeholder line. Model calls are paced; cache hits are not.
func (a *digestAssembler) Assemble(ctx context.Context, subscriber entity.Subscriber) dto.AssembleResult {
	l := labelsFor(subscriber.Language)
	maxItems := a.cfg.Digest.MaxItemsPerTicker
	if maxItems <= 0 {
		maxItems = 3
	}

	var (
		result dto.AssembleResult
		b      strings.Builder
	)
	b.WriteString(telegram.EscapeMarkdown(fmt.Sprintf(l.header, subscriber.Language)))
	b.WriteString("\n")

	for _, ticker := range subscriber.Tickers {
		b.WriteString(fmt.Sprintf("\n--- 📈 %s ---\n", telegram.Bold(ticker)))

		items, err := a.newsRepo.FetchNews(ctx, ticker)
		if err != nil {
			a.logger.Error("Failed to fetch news, skipping ticker",
				logger.ErrorField(err),
				logger.StringField("ticker", ticker),
				logger.Int64Field("chat_id", subscriber.ChatID),
			)
			items = nil
		}
		if len(items) > maxItems {
			items = items[:maxItems]
		}

		tickerHasContent := false
		for _, item := range items {
			summary := a.summarizer.Summarize(ctx, item.Title, item.Link, subscriber.Language, a.cfg.Digest.MaxRetries)
			if summary.ServedFromCache {
				result.Stats.CacheHits++
			} else {
				result.Stats.LLMCalls++
			}

			if summary.Text == "" {
				a.logger.Warn("Empty summary, skipping news item", logger.StringField("title", item.Title))
			} else {
				tickerHasContent = true
				result.Stats.NewsSent++
				b.WriteString(telegram.Bold(item.Title))
				b.WriteString("\n")
				b.WriteString(telegram.EscapeMarkdown(summary.Text))
				b.WriteString("\n")
				b.WriteString(telegram.Link(l.source, item.Link))
				b.WriteString("\n\n")
			}

			if !summary.ServedFromCache {
				if err := a.sleep(ctx, a.cfg.Digest.ModelCallDelay); err != nil {
					a.logger.DebugContext(ctx, "Model call pacing interrupted")
				}
			}
		}

		if tickerHasContent {
			result.HadContent = true
		} else {
			b.WriteString(telegram.Italic(l.noNewsFound))
			b.WriteString("\n")
		}
	}

	result.Message = strings.TrimRight(b.String(), "\n")
	return result
}
