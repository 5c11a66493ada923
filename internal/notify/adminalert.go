package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
)

const (
	alertStatusSent   = "sent"
	alertStatusFailed = "failed"
)

// TelegramAlerter posts operator alerts into an admin chat through a bot.
type TelegramAlerter struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramAlerter connects the bot to the public Bot API.
func NewTelegramAlerter(token string, chatID int64, logger *zerolog.Logger) (*TelegramAlerter, error) {
	return NewTelegramAlerterWithEndpoint(token, tgbotapi.APIEndpoint, chatID, logger)
}

// NewTelegramAlerterWithEndpoint connects the bot to a custom Bot API endpoint.
// endpoint is a format string taking the token and the method name.
func NewTelegramAlerterWithEndpoint(token, endpoint string, chatID int64, logger *zerolog.Logger) (*TelegramAlerter, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: defaultHTTPWait})
	if err != nil {
		return nil, fmt.Errorf("creating admin bot: %w", err)
	}

	return &TelegramAlerter{api: api, chatID: chatID, logger: logger}, nil
}

// SendAlert implements ports.AdminAlerter.
func (a *TelegramAlerter) SendAlert(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("admin alert: %w", err)
	}

	msg := tgbotapi.NewMessage(a.chatID, subject+"\n\n"+body)
	msg.DisableWebPagePreview = true

	if _, err := a.api.Send(msg); err != nil {
		observability.AdminAlerts.WithLabelValues(alertStatusFailed).Inc()

		return fmt.Errorf("sending admin alert: %w", err)
	}

	observability.AdminAlerts.WithLabelValues(alertStatusSent).Inc()
	a.logger.Info().Str("subject", subject).Msg("admin alert sent")

	return nil
}
