package entity

import "time"

// User is a chat that talks to the bot. ChatID is the Telegram chat handle.
type User struct {
	ChatID      int64        `gorm:"primaryKey;autoIncrement:false" json:"chat_id"`
	Language    Language     `gorm:"type:text;not null;default:ru" json:"language"`
	RiskProfile string       `gorm:"type:text;not null;default:moderate" json:"risk_profile"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	Tickers     []UserTicker `gorm:"foreignKey:ChatID;references:ChatID" json:"tickers"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// UserTicker is one tracked ticker symbol of a user.
type UserTicker struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	ChatID int64  `gorm:"not null;uniqueIndex:ux_user_tickers_chat_ticker" json:"chat_id"`
	Ticker string `gorm:"type:text;not null;uniqueIndex:ux_user_tickers_chat_ticker" json:"ticker"`
}

func (UserTicker) TableName() string {
	return "user_tickers"
}
