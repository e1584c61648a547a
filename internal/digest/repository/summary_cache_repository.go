package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"ticker-digest/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryCacheRepository stores generated summaries keyed by news permalink.
// Get returns (nil, nil) when nothing is cached. Storage failures wrap ErrCacheUnavailable.
type SummaryCacheRepository interface {
	Get(ctx context.Context, url string) (*entity.NewsCache, error)
	Put(ctx context.Context, url, summary string) error
}

// CacheKey is the hex SHA-256 of the permalink.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// NewPostgresSummaryCacheRepository creates the durable summary cache.
func NewPostgresSummaryCacheRepository(db *gorm.DB) SummaryCacheRepository {
	return &postgresSummaryCacheRepository{db: db, now: time.Now}
}

type postgresSummaryCacheRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func (r *postgresSummaryCacheRepository) Get(ctx context.Context, url string) (*entity.NewsCache, error) {
	var record entity.NewsCache
	err := r.db.WithContext(ctx).Where("url_hash = ?", CacheKey(url)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read news cache: %v", ErrCacheUnavailable, err)
	}
	return &record, nil
}

// Put inserts the summary or replaces the existing record for the same key.
func (r *postgresSummaryCacheRepository) Put(ctx context.Context, url, summary string) error {
	record := entity.NewsCache{
		URLHash:          CacheKey(url),
		ProcessedSummary: summary,
		CreatedAt:        r.now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"processed_summary", "created_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("%w: failed to write news cache: %v", ErrCacheUnavailable, err)
	}
	return nil
}
