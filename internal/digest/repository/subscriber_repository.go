package repository

import (
	"context"
	"fmt"

	"ticker-digest/internal/entity"
	"ticker-digest/pkg/utils"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// NewSubscriberRepository creates a new instance of SubscriberRepository.
func NewSubscriberRepository(db *gorm.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

type subscriberRepository struct {
	db *gorm.DB
}

type subscriberRow struct {
	ChatID   int64
	Language string
	Tickers  pq.StringArray `gorm:"type:text[]"`
}

// ListActive returns the users with at least one ticker, ordered by chat id.
func (r *subscriberRepository) ListActive(ctx context.Context) ([]entity.Subscriber, error) {
	var rows []subscriberRow
	users, tickers := entity.User{}.TableName(), entity.UserTicker{}.TableName()
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Select(fmt.Sprintf("%[1]s.chat_id, %[1]s.language, array_agg(%[2]s.ticker ORDER BY %[2]s.id) AS tickers", users, tickers)).
		Joins(fmt.Sprintf("JOIN %[2]s ON %[2]s.chat_id = %[1]s.chat_id", users, tickers)).
		Group(fmt.Sprintf("%[1]s.chat_id, %[1]s.language", users)).
		Order(users + ".chat_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	return toSubscribers(rows), nil
}

func toSubscribers(rows []subscriberRow) []entity.Subscriber {
	subscribers := make([]entity.Subscriber, 0, len(rows))
	for _, row := range rows {
		tickers := utils.UniqueUpper(row.Tickers)
		if len(tickers) == 0 {
			continue
		}
		subscribers = append(subscribers, entity.Subscriber{
			ChatID:   row.ChatID,
			Language: entity.ParseLanguage(row.Language),
			Tickers:  tickers,
		})
	}
	return subscribers
}
