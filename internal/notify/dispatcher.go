// Package notify routes notifications to SMS or voice, gates them on credits
// and records every attempt in the usage log.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	errs "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
	"github.com/lueurxax/proactive-notifier/internal/platform/schedule"
)

// Sender delivers a notification to a user.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Costs are the credit prices of one notification per channel.
type Costs struct {
	Msg  float64
	Call float64
}

// Deps are the collaborators of a Dispatcher. SMS and Voice may be nil when
// the provider is not configured; sends on that channel then fail.
type Deps struct {
	Users   ports.UserStore
	Credits ports.CreditStore
	Log     ports.NotificationLog
	History ports.HistoryStore
	SMS     ports.SMSSender
	Voice   ports.VoiceCaller
	Costs   Costs

	// Now defaults to time.Now.
	Now func() time.Time
}

// Dispatcher implements Sender.
type Dispatcher struct {
	deps   Deps
	logger *zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(deps Deps, logger *zerolog.Logger) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Dispatcher{deps: deps, logger: logger}
}

// Route picks the channel for a content type. Critical alerts follow the
// user's critical setting; "_call" and "_sms" suffixes force a channel;
// everything else follows the user's default notification type.
func Route(contentType string, settings *domain.UserSettings) string {
	switch {
	case strings.Contains(contentType, contentTypeCritical):
		return channelFor(settings.CriticalEnabled)
	case strings.HasSuffix(contentType, suffixCall):
		return ChannelCall
	case strings.HasSuffix(contentType, suffixSMS):
		return ChannelSMS
	default:
		return channelFor(settings.NotificationType)
	}
}

func channelFor(setting string) string {
	if setting == domain.NotiTypeCall {
		return ChannelCall
	}

	return ChannelSMS
}

// Send delivers n on the routed channel. It returns errors.ErrInsufficientCredits
// when the user cannot pay, without touching the usage log, and
// errors.ErrSendFailed when the provider fails, after logging a failed row.
func (d *Dispatcher) Send(ctx context.Context, n domain.Notification) error {
	settings, err := d.deps.Users.GetUserSettings(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("load user settings: %w", err)
	}

	channel := Route(n.ContentType, settings)

	logger := d.logger.With().
		Int64(logKeyUserID, n.UserID).
		Str(logKeyContentType, n.ContentType).
		Str(logKeyChannel, channel).
		Logger()

	if channel == ChannelCall {
		return d.sendCall(ctx, &logger, settings, n)
	}

	return d.sendSMS(ctx, &logger, settings, n)
}

func (d *Dispatcher) sendSMS(ctx context.Context, logger *zerolog.Logger, settings *domain.UserSettings, n domain.Notification) error {
	if err := d.checkCredits(ctx, logger, n, ChannelSMS, d.deps.Costs.Msg); err != nil {
		return err
	}

	var (
		sid     string
		sendErr error
	)

	if d.deps.SMS == nil {
		sendErr = errs.ErrClientDisabled
	} else {
		sid, sendErr = d.deps.SMS.SendSMS(ctx, settings.PhoneNumber, n.Text)
	}

	if sendErr != nil {
		d.recordFailure(ctx, logger, n, ChannelSMS, fmt.Sprintf(smsFailureFmt, sendErr))

		return fmt.Errorf("%w: %w", errs.ErrSendFailed, sendErr)
	}

	d.recordSuccess(ctx, logger, n, ChannelSMS, sid, domain.StatusDelivered, d.deps.Costs.Msg)

	return nil
}

func (d *Dispatcher) sendCall(ctx context.Context, logger *zerolog.Logger, settings *domain.UserSettings, n domain.Notification) error {
	if err := d.checkCredits(ctx, logger, n, ChannelCall, d.deps.Costs.Call); err != nil {
		return err
	}

	firstMessage := n.FirstMessage
	if firstMessage == "" {
		firstMessage = defaultCallFirstMessage
	}

	loc := schedule.LocationOrUTC(settings.Timezone)

	call := ports.VoiceCall{
		UserID:         n.UserID,
		To:             settings.PhoneNumber,
		FirstMessage:   firstMessage,
		Message:        n.Text,
		ContentType:    n.ContentType,
		Timezone:       loc.String(),
		TimezoneOffset: schedule.UTCOffset(d.deps.Now(), loc),
	}

	var (
		ref     string
		sendErr error
	)

	if d.deps.Voice == nil {
		sendErr = errs.ErrClientDisabled
	} else {
		ref, sendErr = d.deps.Voice.PlaceCall(ctx, call)
	}

	if sendErr != nil {
		d.recordFailure(ctx, logger, n, ChannelCall, fmt.Sprintf(callFailureFmt, sendErr))

		return fmt.Errorf("%w: %w", errs.ErrSendFailed, sendErr)
	}

	d.recordSuccess(ctx, logger, n, ChannelCall, ref, domain.StatusCompleted, d.deps.Costs.Call)

	return nil
}

func (d *Dispatcher) checkCredits(ctx context.Context, logger *zerolog.Logger, n domain.Notification, channel string, cost float64) error {
	ok, err := d.deps.Credits.HasCredits(ctx, n.UserID, cost)
	if err != nil {
		return fmt.Errorf("check credits: %w", err)
	}

	if !ok {
		observability.Notifications.WithLabelValues(channel, n.ContentType, statusInsufficient).Inc()
		logger.Warn().Float64("cost", cost).Msg("insufficient credits for notification")

		return errs.ErrInsufficientCredits
	}

	return nil
}

func (d *Dispatcher) recordFailure(ctx context.Context, logger *zerolog.Logger, n domain.Notification, channel, reason string) {
	observability.Notifications.WithLabelValues(channel, n.ContentType, domain.StatusFailed).Inc()
	logger.Error().Str("reason", reason).Msg("notification failed")

	rec := domain.NotificationRecord{
		UserID:      n.UserID,
		ContentType: n.ContentType,
		Channel:     channel,
		Success:     false,
		Status:      domain.StatusFailed,
		Reason:      reason,
		CreatedAt:   d.deps.Now(),
	}

	if err := d.deps.Log.LogNotification(ctx, rec); err != nil {
		logger.Error().Err(err).Msg("failed to log notification usage")
	}
}

func (d *Dispatcher) recordSuccess(ctx context.Context, logger *zerolog.Logger, n domain.Notification, channel, ref, status string, cost float64) {
	observability.Notifications.WithLabelValues(channel, n.ContentType, status).Inc()
	logger.Info().Str(logKeyRef, ref).Msg("notification sent")

	now := d.deps.Now()

	entry := domain.HistoryEntry{
		UserID:    n.UserID,
		Role:      domain.RoleAssistant,
		Content:   n.Text,
		CreatedAt: now,
	}

	if err := d.deps.History.AppendHistory(ctx, entry); err != nil {
		logger.Error().Err(err).Msg("failed to store notification in history")
	}

	rec := domain.NotificationRecord{
		UserID:      n.UserID,
		ExternalRef: ref,
		ContentType: n.ContentType,
		Channel:     channel,
		Success:     true,
		Status:      status,
		CreatedAt:   now,
	}

	if err := d.deps.Log.LogNotification(ctx, rec); err != nil {
		logger.Error().Err(err).Msg("failed to log notification usage")
	}

	if err := d.deps.Credits.DeductCredits(ctx, n.UserID, cost); err != nil {
		logger.Error().Err(err).Msg("failed to deduct credits")
	}
}
