package repository

import (
	"context"

	"ticker-digest/internal/entity"
	"ticker-digest/pkg/logger"
)

// NewLayeredSummaryCacheRepository puts a fast cache in front of a durable one.
// The durable layer is authoritative: its errors are returned, fast layer errors are only logged.
func NewLayeredSummaryCacheRepository(fast, durable SummaryCacheRepository, log *logger.Logger) SummaryCacheRepository {
	return &layeredSummaryCacheRepository{fast: fast, durable: durable, logger: log}
}

type layeredSummaryCacheRepository struct {
	fast    SummaryCacheRepository
	durable SummaryCacheRepository
	logger  *logger.Logger
}

func (r *layeredSummaryCacheRepository) Get(ctx context.Context, url string) (*entity.NewsCache, error) {
	record, err := r.fast.Get(ctx, url)
	if err != nil {
		r.logger.Warn("Fast summary cache read failed", logger.ErrorField(err), logger.StringField("url", url))
	} else if record != nil {
		return record, nil
	}

	record, err = r.durable.Get(ctx, url)
	if err != nil || record == nil {
		return record, err
	}

	if err := r.fast.Put(ctx, url, record.ProcessedSummary); err != nil {
		r.logger.Warn("Failed to backfill fast summary cache", logger.ErrorField(err), logger.StringField("url", url))
	}
	return record, nil
}

func (r *layeredSummaryCacheRepository) Put(ctx context.Context, url, summary string) error {
	if err := r.durable.Put(ctx, url, summary); err != nil {
		return err
	}
	if err := r.fast.Put(ctx, url, summary); err != nil {
		r.logger.Warn("Failed to write fast summary cache", logger.ErrorField(err), logger.StringField("url", url))
	}
	return nil
}
