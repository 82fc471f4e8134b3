package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Alerter короткое уведомление коучу
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramAlerter шлёт уведомления в чат коуча
type TelegramAlerter struct {
	bot    messageSender
	chatID int64
}

// NewTelegramAlerter создаёт бота только для исходящих сообщений
func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramAlerter{bot: b, chatID: chatID}, nil
}

func (a *TelegramAlerter) Alert(ctx context.Context, text string) error {
	_, err := a.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: a.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}
