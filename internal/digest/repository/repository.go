package repository

import (
	"context"

	"ticker-digest/internal/entity"
)

// AIRepository produces free-form text from a prompt.
type AIRepository interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// NewsRepository fetches recent headlines for a ticker, most recent first.
// An empty result is not an error; genuine failures wrap ErrFetchFailure.
type NewsRepository interface {
	FetchNews(ctx context.Context, ticker string) ([]entity.NewsItem, error)
}

// SubscriberRepository lists the users eligible for a digest.
type SubscriberRepository interface {
	ListActive(ctx context.Context) ([]entity.Subscriber, error)
}

// RunLockRepository guards against overlapping digest runs across processes.
type RunLockRepository interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}
