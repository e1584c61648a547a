package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/entity"
	"ticker-digest/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://finance.yahoo.com/news/apple-beats"

func newTestSummarizer(cache repository.SummaryCacheRepository, ai repository.AIRepository, sleeper *recordingSleeper) *summarizer {
	s := NewSummarizer(cache, ai, logger.NewNop(), time.Second).(*summarizer)
	s.sleep = sleeper.Sleep
	return s
}

func TestSummarize_CachesThenServesFromCache(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	ai := &fakeAI{text: "ESSENCE: Apple beat.\nIMPACT: Positive\nFORECAST: Up"}
	s := newTestSummarizer(cache, ai, &recordingSleeper{})

	first := s.Summarize(ctx, "Apple beats", testURL, entity.LanguageEN, 3)
	second := s.Summarize(ctx, "Apple beats", testURL, entity.LanguageEN, 3)

	assert.False(t, first.ServedFromCache)
	assert.True(t, second.ServedFromCache)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, 1, cache.puts)
}

func TestSummarize_CachedURLMakesNoModelCall(t *testing.T) {
	cache := newFakeCache()
	cache.data[testURL] = "cached analysis"
	ai := &fakeAI{text: "fresh"}
	s := newTestSummarizer(cache, ai, &recordingSleeper{})

	got := s.Summarize(context.Background(), "Apple beats", testURL, entity.LanguageRU, 3)

	assert.Equal(t, "cached analysis", got.Text)
	assert.True(t, got.ServedFromCache)
	assert.Zero(t, ai.calls)
	assert.Zero(t, cache.puts)
}

func TestSummarize_RetriesWithExponentialBackoff(t *testing.T) {
	for k := 0; k < 3; k++ {
		t.Run(fmt.Sprintf("%d failures", k), func(t *testing.T) {
			cache := newFakeCache()
			ai := &fakeAI{text: "analysis", failures: k}
			sleeper := &recordingSleeper{}
			s := newTestSummarizer(cache, ai, sleeper)

			got := s.Summarize(context.Background(), "t", testURL, entity.LanguageEN, 3)

			assert.Equal(t, "analysis", got.Text)
			assert.False(t, got.Fallback)
			assert.Equal(t, k+1, ai.calls)
			assert.Equal(t, 1, cache.puts)
			want := []time.Duration{time.Second, 2 * time.Second}[:k]
			assert.Equal(t, want, append([]time.Duration{}, sleeper.delays...))
		})
	}
}

func TestSummarize_ExhaustedAttemptsReturnFallback(t *testing.T) {
	cache := newFakeCache()
	ai := &fakeAI{text: "never", failures: 10}
	sleeper := &recordingSleeper{}
	s := newTestSummarizer(cache, ai, sleeper)

	got := s.Summarize(context.Background(), "t", testURL, entity.LanguageEN, 4)

	assert.Equal(t, FallbackSummary, got.Text)
	assert.True(t, got.Fallback)
	assert.False(t, got.ServedFromCache)
	assert.Equal(t, 4, ai.calls)
	assert.Zero(t, cache.puts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeper.delays)
}

func TestSummarize_NonPositiveRetriesMakeOneAttempt(t *testing.T) {
	for _, maxRetries := range []int{0, -2} {
		ai := &fakeAI{failures: 10}
		s := newTestSummarizer(newFakeCache(), ai, &recordingSleeper{})

		got := s.Summarize(context.Background(), "t", testURL, entity.LanguageEN, maxRetries)

		assert.Equal(t, FallbackSummary, got.Text)
		assert.Equal(t, 1, ai.calls)
	}
}

func TestSummarize_CacheUnavailableIsTreatedAsMiss(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = fmt.Errorf("%w: connection refused", repository.ErrCacheUnavailable)
	ai := &fakeAI{text: "analysis"}
	s := newTestSummarizer(cache, ai, &recordingSleeper{})

	got := s.Summarize(context.Background(), "t", testURL, entity.LanguageEN, 3)

	assert.Equal(t, "analysis", got.Text)
	assert.False(t, got.ServedFromCache)
	assert.Equal(t, 1, ai.calls)
	assert.Zero(t, cache.puts)
}

func TestSummarize_CacheWriteFailureStillReturnsSummary(t *testing.T) {
	cache := newFakeCache()
	cache.putErr = fmt.Errorf("%w: disk full", repository.ErrCacheUnavailable)
	s := newTestSummarizer(cache, &fakeAI{text: "analysis"}, &recordingSleeper{})

	got := s.Summarize(context.Background(), "t", testURL, entity.LanguageEN, 3)
	assert.Equal(t, "analysis", got.Text)
	assert.Equal(t, 1, cache.puts)
}

func TestSummarize_PromptFollowsLanguage(t *testing.T) {
	ai := &fakeAI{text: "ok"}
	s := newTestSummarizer(newFakeCache(), ai, &recordingSleeper{})

	s.Summarize(context.Background(), "Apple beats", "https://a", entity.LanguageRU, 1)
	s.Summarize(context.Background(), "Apple beats", "https://b", entity.LanguageEN, 1)

	require.Len(t, ai.prompts, 2)
	assert.Contains(t, ai.prompts[0], "СУТЬ:")
	assert.Contains(t, ai.prompts[1], "ESSENCE:")
}

func TestSummarize_CancelledBackoffStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ai := &fakeAI{failures: 10}
	s := newTestSummarizer(newFakeCache(), ai, &recordingSleeper{})

	got := s.Summarize(ctx, "t", testURL, entity.LanguageEN, 5)

	assert.True(t, got.Fallback)
	assert.Equal(t, 1, ai.calls)
}
