package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cantine/internal/models"
)

// TelegramNotifier sends the closing summary to the manager chats.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

// NewTelegramNotifier authenticates the bot once at startup.
func NewTelegramNotifier(token string, chatIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// SendClosingSummary delivers the summary to every manager chat. The
// first failure aborts; the fanout logs and counts it.
func (n *TelegramNotifier) SendClosingSummary(ctx context.Context, dateISO string, t models.Totals) error {
	text := Subject(dateISO) + "\n\n" + SummaryBody(dateISO, t)
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			return fmt.Errorf("send to chat %d: %w", chatID, err)
		}
	}
	return nil
}
