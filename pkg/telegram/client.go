package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier defines the interface for a Telegram notifier.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// client is an implementation of Notifier.
type client struct {
	bot       messageSender
	partDelay time.Duration
}

// NewClient creates a new Telegram notifier client.
func NewClient(botToken string) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:       bot,
		partDelay: 100 * time.Millisecond, // supaya tidak lebih dari 20 msg/detik
	}, nil
}

// SendMessage sends text to a chat, splitting it into several messages when it
// exceeds the Telegram length limit. The first failing part aborts the rest.
func (c *client) SendMessage(chatID int64, text string) error {
	parts := SplitMessage(text, MaxMessageLength)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown // Using Markdown for formatting
		msg.DisableWebPagePreview = true
		if _, err := c.bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send part %d/%d: %w", i+1, len(parts), err)
		}
		if i < len(parts)-1 && c.partDelay > 0 {
			time.Sleep(c.partDelay)
		}
	}
	return nil
}
