package repository

import (
	"context"
	"time"

	"ticker-digest/internal/entity"

	"github.com/patrickmn/go-cache"
)

// NewMemorySummaryCacheRepository creates a process-local summary cache.
// A zero ttl never expires entries.
func NewMemorySummaryCacheRepository(ttl time.Duration) SummaryCacheRepository {
	expiration := cache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	return &memorySummaryCacheRepository{
		store: cache.New(expiration, 10*time.Minute),
		now:   time.Now,
	}
}

type memorySummaryCacheRepository struct {
	store *cache.Cache
	now   func() time.Time
}

func (r *memorySummaryCacheRepository) Get(_ context.Context, url string) (*entity.NewsCache, error) {
	v, ok := r.store.Get(CacheKey(url))
	if !ok {
		return nil, nil
	}
	record := v.(entity.NewsCache)
	return &record, nil
}

func (r *memorySummaryCacheRepository) Put(_ context.Context, url, summary string) error {
	key := CacheKey(url)
	r.store.SetDefault(key, entity.NewsCache{
		URLHash:          key,
		ProcessedSummary: summary,
		CreatedAt:        r.now(),
	})
	return nil
}
