package entity

import "time"

// NewsCache is a summary generated for a news permalink, keyed by the URL hash.
type NewsCache struct {
	URLHash          string    `gorm:"column:url_hash;type:text;primaryKey" json:"url_hash"`
	ProcessedSummary string    `gorm:"column:processed_summary;type:text;not null" json:"processed_summary"`
	CreatedAt        time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for the NewsCache model.
func (NewsCache) TableName() string {
	return "news_cache"
}
