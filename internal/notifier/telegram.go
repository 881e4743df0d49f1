// Package notifier delivers price-change events over Telegram.
package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"price-tracker/internal/monitor"
)

// Telegram sends a message when a tracked product with an enabled alert drops
// to or below its target price.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects the bot. chatID is the default destination for alerts
// that carry no chat of their own.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	bot.Debug = false
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier ready")
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// PriceChanged implements monitor.Notifier.
func (t *Telegram) PriceChanged(ctx context.Context, change monitor.PriceChange) {
	rec := change.Record
	chatID, ok := alertTarget(change, t.chatID)
	if !ok {
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"PRICE DROP\n\n%s\nNow: %.2f (was %.2f)\nTarget: %.2f\n\n%s",
		rec.Name, change.NewPrice, change.PreviousPrice, rec.Alert.TargetPrice, rec.URL,
	))
	if _, err := t.bot.Send(msg); err != nil {
		log.Error().Err(err).Str("product_id", rec.ProductID).Msg("failed to send price alert")
		return
	}
	log.Info().Str("product_id", rec.ProductID).Float64("price", change.NewPrice).Msg("price alert sent")
}

// alertTarget decides whether change warrants a message and which chat gets
// it. An alert may carry its own chat; otherwise the default applies.
func alertTarget(change monitor.PriceChange, defaultChat int64) (int64, bool) {
	alert := change.Record.Alert
	if alert == nil || !alert.Enabled || change.NewPrice > alert.TargetPrice {
		return 0, false
	}
	if alert.ChatID != 0 {
		return alert.ChatID, true
	}
	if defaultChat != 0 {
		return defaultChat, true
	}
	return 0, false
}

// Noop discards price-change events, for deployments with no Telegram token.
type Noop struct{}

// PriceChanged implements monitor.Notifier.
func (Noop) PriceChanged(context.Context, monitor.PriceChange) {}
