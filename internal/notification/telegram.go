package notification

import (
	"context"
	"fmt"

	"stayhub/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pushes booking notifications to the user's Telegram chat.
// With an empty token it degrades to a no-op so the rest of the system never
// has to branch on whether Telegram is configured.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	logger *zerolog.Logger
}

func NewTelegramNotifier(token string, logger *zerolog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		logger.Warn().Msg("telegram bot token is empty, notifications disabled")
		return &TelegramNotifier{bot: nil, logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, user *models.User, message string) {
	if n.bot == nil {
		n.logger.Debug().Str("text", message).Msg("notification skipped (bot disabled)")
		return
	}
	if user == nil || user.TelegramChatID == 0 {
		n.logger.Debug().Str("text", message).Msg("notification skipped (no chat_id)")
		return
	}
	if err := ctx.Err(); err != nil {
		n.logger.Debug().Int64("chat_id", user.TelegramChatID).Msg("notification skipped (context cancelled)")
		return
	}

	msg := tgbotapi.NewMessage(user.TelegramChatID, message)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", user.TelegramChatID).Msg("failed to send telegram notification")
	}
}
