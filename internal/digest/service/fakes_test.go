package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ticker-digest/internal/digest/config"
	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/entity"
)

type fakeCache struct {
	mu     sync.Mutex
	data   map[string]string
	puts   int
	getErr error
	putErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, url string) (*entity.NewsCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[url]
	if !ok {
		return nil, nil
	}
	return &entity.NewsCache{URLHash: repository.CacheKey(url), ProcessedSummary: v}, nil
}

func (f *fakeCache) Put(_ context.Context, url, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.data[url] = summary
	return nil
}

// fakeAI fails the first failures calls, then answers with text.
type fakeAI struct {
	mu       sync.Mutex
	text     string
	failures int
	calls    int
	prompts  []string
}

func (f *fakeAI) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.calls <= f.failures {
		return "", fmt.Errorf("%w: quota exceeded", repository.ErrSummarizeFailure)
	}
	return f.text, nil
}

type fakeNews struct {
	items map[string][]entity.NewsItem
	errs  map[string]error
	calls []string
}

func (f *fakeNews) FetchNews(_ context.Context, ticker string) ([]entity.NewsItem, error) {
	f.calls = append(f.calls, ticker)
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	return f.items[ticker], nil
}

func newsItems(ticker string, n int) []entity.NewsItem {
	items := make([]entity.NewsItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, entity.NewsItem{
			Ticker: ticker,
			Title:  fmt.Sprintf("%s headline %d", ticker, i),
			Link:   fmt.Sprintf("https://news.example.com/%s/%d", ticker, i),
		})
	}
	return items
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent   []sentMessage
	failed map[int64]bool
}

func (f *fakeNotifier) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	if f.failed[chatID] {
		return errors.New("Forbidden: bot was blocked by the user")
	}
	return nil
}

type fakeSubscribers struct {
	subscribers []entity.Subscriber
	err         error
}

func (f *fakeSubscribers) ListActive(context.Context) ([]entity.Subscriber, error) {
	return f.subscribers, f.err
}

type fakeLock struct {
	err      error
	released int
}

func (f *fakeLock) Acquire(context.Context) (func(context.Context) error, error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(context.Context) error {
		f.released++
		return nil
	}, nil
}

type fakeMetrics struct {
	runs           int
	usersProcessed int
	errors         int
}

func (f *fakeMetrics) RecordRun(usersProcessed, _, _, _, errors int, _ time.Duration) {
	f.runs++
	f.usersProcessed += usersProcessed
	f.errors += errors
}

// recordingSleeper records requested delays without waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestConfig() *config.Config {
	return &config.Config{
		Digest: config.Digest{
			MaxItemsPerTicker: 3,
			MaxRetries:        3,
			RetryBaseDelay:    time.Second,
			ModelCallDelay:    time.Second,
			SubscriberDelay:   5 * time.Second,
		},
	}
}
