package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/entity"
	"ticker-digest/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func newTestAssembler(news repository.NewsRepository, s Summarizer, sleeper *recordingSleeper) *digestAssembler {
	a := NewDigestAssembler(newTestConfig(), logger.NewNop(), news, s).(*digestAssembler)
	a.sleep = sleeper.Sleep
	return a
}

func TestAssemble_CapsItemsPerTicker(t *testing.T) {
	ai := &fakeAI{text: "analysis"}
	news := &fakeNews{items: map[string][]entity.NewsItem{"AAPL": newsItems("AAPL", 10)}}
	a := newTestAssembler(news, newTestSummarizer(newFakeCache(), ai, &recordingSleeper{}), &recordingSleeper{})

	got := a.Assemble(context.Background(), entity.Subscriber{ChatID: 1, Language: entity.LanguageEN, Tickers: []string{"AAPL"}})

	assert.Equal(t, 3, ai.calls)
	assert.Equal(t, 3, got.Stats.NewsSent)
	assert.Contains(t, got.Message, "AAPL headline 2")
	assert.NotContains(t, got.Message, "AAPL headline 3")
}

func TestAssemble_FetchFailureIsIsolated(t *testing.T) {
	news := &fakeNews{
		items: map[string][]entity.NewsItem{"AAPL": newsItems("AAPL", 1)},
		errs:  map[string]error{"XXXX": fmt.Errorf("%w: 404", repository.ErrFetchFailure)},
	}
	a := newTestAssembler(news, newTestSummarizer(newFakeCache(), &fakeAI{text: "analysis"}, &recordingSleeper{}), &recordingSleeper{})

	got := a.Assemble(context.Background(), entity.Subscriber{ChatID: 1, Language: entity.LanguageEN, Tickers: []string{"XXXX", "AAPL"}})

	assert.True(t, got.HadContent)
	assert.Equal(t, []string{"XXXX", "AAPL"}, news.calls)
	assert.Contains(t, got.Message, "analysis")

	xxxx := strings.Index(got.Message, "*XXXX*")
	aapl := strings.Index(got.Message, "*AAPL*")
	placeholder := strings.Index(got.Message, "_No new news found._")
	assert.True(t, xxxx >= 0 && xxxx < placeholder && placeholder < aapl, got.Message)
}

func TestAssemble_NoNewsHasNoContent(t *testing.T) {
	news := &fakeNews{}
	ai := &fakeAI{text: "analysis"}
	a := newTestAssembler(news, newTestSummarizer(newFakeCache(), ai, &recordingSleeper{}), &recordingSleeper{})

	got := a.Assemble(context.Background(), entity.Subscriber{ChatID: 1, Language: entity.LanguageRU, Tickers: []string{"AAPL", "TSLA"}})

	assert.False(t, got.HadContent)
	assert.Zero(t, ai.calls)
	assert.Equal(t, 2, strings.Count(got.Message, "_Новых новостей не найдено._"))
	assert.True(t, strings.HasPrefix(got.Message, "Дайджест новостей для вас (ru):"))
}

func TestAssemble_FallbackCountsAsContent(t *testing.T) {
	news := &fakeNews{items: map[string][]entity.NewsItem{"AAPL": newsItems("AAPL", 1)}}
	ai := &fakeAI{failures: 10}
	a := newTestAssembler(news, newTestSummarizer(newFakeCache(), ai, &recordingSleeper{}), &recordingSleeper{})

	got := a.Assemble(context.Background(), entity.Subscriber{ChatID: 1, Language: entity.LanguageEN, Tickers: []string{"AAPL"}})

	assert.True(t, got.HadContent)
	assert.Equal(t, 1, got.Stats.LLMCalls)
	assert.Equal(t, 1, got.Stats.NewsSent)
	assert.Contains(t, got.Message, FallbackSummary)
}

func TestAssemble_PacesOnlyModelCalls(t *testing.T) {
	cache := newFakeCache()
	items := newsItems("AAPL", 3)
	cache.data[items[0].Link] = "cached"
	news := &fakeNews{items: map[string][]entity.NewsItem{"AAPL": items}}
	pacing := &recordingSleeper{}
	a := newTestAssembler(news, newTestSummarizer(cache, &fakeAI{text: "fresh"}, &recordingSleeper{}), pacing)

	got := a.Assemble(context.Background(), entity.Subscriber{ChatID: 1, Language: entity.LanguageEN, Tickers: []string{"AAPL"}})

	assert.Equal(t, 1, got.Stats.CacheHits)
	assert.Equal(t, 2, got.Stats.LLMCalls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, pacing.delays)
}

func TestAssemble_FormatsItemBlock(t *testing.T) {
	news := &fakeNews{items: map[string][]entity.NewsItem{"AAPL": {
		{Ticker: "AAPL", Title: "Apple *beats* Q3_estimates", Link: "https://news.example.com/apple"},
	}}}
	a := newTestAssembler(news, newTestSummarizer(newFakeCache(), &fakeAI{text: "IMPACT: Positive"}, &recordingSleeper{}), &recordingSleeper{})

	got := a.Assemble(context.Background(), entity.Subscriber{ChatID: 1, Language: entity.LanguageEN, Tickers: []string{"AAPL"}})

	assert.Equal(t, "News digest for you (en):\n"+
		"\n--- 📈 *AAPL* ---\n"+
		`*Apple *\**beats*\** Q3_estimates*`+"\n"+
		"IMPACT: Positive\n"+
		"[Source](https://news.example.com/apple)", got.Message)
}
