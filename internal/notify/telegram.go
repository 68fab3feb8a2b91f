package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier delivers reminders to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates against the Telegram bot API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram auth failed: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Notify sends one message to the configured chat.
func (t *TelegramNotifier) Notify(_ context.Context, title, body string) error {
	msg := tgbotapi.NewMessage(t.chatID, title+"\n"+body)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("notify: telegram send failed: %w", err)
	}
	return nil
}
