package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ticker-digest/internal/entity"
	"ticker-digest/pkg/common"
	"ticker-digest/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// NewRedisSummaryCacheRepository creates a summary cache stored in redis.
// A zero ttl keeps entries until they are evicted.
func NewRedisSummaryCacheRepository(client redis.Cmdable, ttl time.Duration, log *logger.Logger) SummaryCacheRepository {
	return &redisSummaryCacheRepository{client: client, ttl: ttl, logger: log, now: time.Now}
}

type redisSummaryCacheRepository struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

func (r *redisSummaryCacheRepository) Get(ctx context.Context, url string) (*entity.NewsCache, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(common.RedisKeySummaryCache, CacheKey(url))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read redis cache: %v", ErrCacheUnavailable, err)
	}

	var record entity.NewsCache
	if err := json.Unmarshal(raw, &record); err != nil {
		// A miss lets the next fresh summary overwrite the bad entry.
		r.logger.Warn("Corrupt summary cache entry, treating as miss", logger.ErrorField(err), logger.StringField("url", url))
		return nil, nil
	}
	return &record, nil
}

func (r *redisSummaryCacheRepository) Put(ctx context.Context, url, summary string) error {
	key := CacheKey(url)
	payload, err := json.Marshal(entity.NewsCache{
		URLHash:          key,
		ProcessedSummary: summary,
		CreatedAt:        r.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, fmt.Sprintf(common.RedisKeySummaryCache, key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to write redis cache: %v", ErrCacheUnavailable, err)
	}
	return nil
}
