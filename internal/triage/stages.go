package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/core/llm"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
	"github.com/lueurxax/proactive-notifier/internal/ingest/bridge"
	"github.com/lueurxax/proactive-notifier/internal/notify"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
	"github.com/lueurxax/proactive-notifier/internal/platform/textutil"
)

// Reasons for decisions that end a pipeline without a notification.
const (
	reasonNoPrompt      = "no_prompt"
	reasonNoTrigger     = "no_trigger"
	reasonConsumed      = "already_consumed"
	reasonConsumeFailed = "consume_failed"
	reasonCallsOff      = "calls_disabled"
	reasonNotFamily     = "not_family"
	reasonCooldown      = "cooldown"
	reasonCooldownError = "cooldown_lookup_failed"
)

// MatchPrioritySender returns the first sender in mode whose stored name
// appears in the chat name or the sender name, ignoring case and bridge suffixes.
func MatchPrioritySender(senders []domain.PrioritySender, mode, chatName, senderName string) (domain.PrioritySender, bool) {
	chat := textutil.RemoveBridgeSuffix(chatName)

	for _, p := range senders {
		if p.NotiMode != mode {
			continue
		}

		name := strings.TrimSpace(textutil.RemoveBridgeSuffix(p.Sender))
		if name == "" {
			continue
		}

		if textutil.ContainsFold(chat, name) || textutil.ContainsFold(senderName, name) {
			return p, true
		}
	}

	return domain.PrioritySender{}, false
}

func classifierInput(msg domain.BridgeMessage) string {
	return fmt.Sprintf(classifierInputFmt, textutil.Capitalize(string(msg.Service)), msg.ChatName, msg.Content)
}

func deliveryKind(notiType string) string {
	if notiType == domain.NotiTypeCall {
		return domain.NotiTypeCall
	}

	return domain.NotiTypeSMS
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}

	return s
}

// confirmationStage handles a "yes" answer to the assistant's offer to
// forward a time-sensitive message in a direct chat.
type confirmationStage struct {
	timeline ports.TimelineSource
	limit    int
}

func (s *confirmationStage) Name() string { return StageConfirmation }

func (s *confirmationStage) Evaluate(ctx context.Context, ev *Event) (Decision, bool) {
	msg := ev.Message
	if msg.MemberCount > maxDirectMembers || !bridge.IsConfirmation(msg.Content) {
		return Decision{}, false
	}

	events, err := s.timeline.RecentRoomEvents(ctx, msg.UserID, msg.RoomID, s.limit)
	if err != nil {
		ev.Logger.Warn().Err(err).Msg("timeline lookup for confirmation failed")
		return Decision{}, false
	}

	promptAt := -1

	for i, e := range events {
		if !e.IsOwn {
			continue
		}

		content, ok := bridge.MessageContent(e.MsgType, e.Body, e.FormattedBody)
		if !ok || bridge.IsErrorText(content) {
			continue
		}

		if strings.Contains(content, AssistantPromptMarker) {
			promptAt = i
		}

		break
	}

	if promptAt < 0 {
		return Decision{Reason: reasonNoPrompt}, true
	}

	for _, e := range events[promptAt+1:] {
		if e.IsOwn || !bridge.HasBridgePrefix(msg.Service, e.Sender) {
			continue
		}

		content, ok := bridge.MessageContent(e.MsgType, e.Body, e.FormattedBody)
		if !ok || bridge.IsErrorText(content) {
			continue
		}

		service := textutil.Capitalize(string(msg.Service))

		return Decision{Notification: &domain.Notification{
			UserID:       msg.UserID,
			Text:         fmt.Sprintf(classifierInputFmt, service, msg.ChatName, content),
			ContentType:  fmt.Sprintf(contentTypeCriticalFmt, msg.Service),
			FirstMessage: fmt.Sprintf(confirmationFirstMessageFmt, service),
		}}, true
	}

	return Decision{Reason: reasonNoTrigger}, true
}

// priorityStage notifies immediately for contacts flagged in "all" mode.
type priorityStage struct {
	senders ports.PrioritySenderStore
	credits ports.CreditStore
	cost    float64
}

func (s *priorityStage) Name() string { return StagePriority }

func (s *priorityStage) Evaluate(ctx context.Context, ev *Event) (Decision, bool) {
	msg := ev.Message

	senders, err := s.senders.ListPrioritySenders(ctx, msg.UserID, string(msg.Service))
	if err != nil {
		ev.Logger.Warn().Err(err).Msg("priority sender lookup failed")
		return Decision{}, false
	}

	match, ok := MatchPrioritySender(senders, domain.NotiModeAll, msg.ChatName, msg.SenderName)
	if !ok {
		return Decision{}, false
	}

	// Without message credits the later stages still get a chance.
	if s.credits != nil {
		hasCredits, err := s.credits.HasCredits(ctx, msg.UserID, s.cost)
		if err != nil {
			ev.Logger.Warn().Err(err).Msg("credit lookup failed")
		} else if !hasCredits {
			ev.Logger.Warn().Str("sender", match.Sender).Msg("priority sender matched without message credits")
			return Decision{}, false
		}
	}

	return Decision{Notification: &domain.Notification{
		UserID:       msg.UserID,
		Text:         notify.TrimForSMS(string(msg.Service), match.Sender, msg.Content),
		ContentType:  fmt.Sprintf(contentTypePriorityFmt, msg.Service, deliveryKind(match.NotiType)),
		FirstMessage: fmt.Sprintf(priorityFirstMessageFmt, textutil.Capitalize(string(msg.Service)), match.Sender),
	}}, true
}

// waitingCheckStage matches the message against the user's waiting checks
// and consumes the matched check.
type waitingCheckStage struct {
	checks ports.WaitingCheckStore
	llm    llm.Client
}

func (s *waitingCheckStage) Name() string { return StageWaitingCheck }

func (s *waitingCheckStage) Evaluate(ctx context.Context, ev *Event) (Decision, bool) {
	msg := ev.Message

	checks, err := s.checks.ListWaitingChecks(ctx, msg.UserID, domain.WaitingCheckServiceMessaging, string(msg.Service))
	if err != nil {
		ev.Logger.Warn().Err(err).Msg("waiting check lookup failed")
		return Decision{}, false
	}

	if len(checks) == 0 {
		return Decision{}, false
	}

	verdict, err := s.llm.MatchWaitingCheck(ctx, classifierInput(msg), checks)
	if err != nil {
		ev.Logger.Warn().Err(err).Msg("waiting check match failed, treating as no match")
		return Decision{}, false
	}

	match, ok := verdict.(llm.WaitingCheckMatch)
	if !ok {
		return Decision{}, false
	}

	var check domain.WaitingCheck

	for _, c := range checks {
		if c.ID == match.CheckID {
			check = c
			break
		}
	}

	removed, err := s.checks.DeleteWaitingCheck(ctx, msg.UserID, match.CheckID)

	switch {
	case err != nil:
		ev.Logger.Error().Err(err).Int64("check_id", match.CheckID).Msg("failed to delete matched waiting check, skipping notification")
		return Decision{Reason: reasonConsumeFailed}, true
	case !removed:
		ev.Logger.Info().Int64("check_id", match.CheckID).Msg("waiting check consumed by another pipeline")
		return Decision{Reason: reasonConsumed}, true
	}

	service := textutil.Capitalize(string(msg.Service))

	return Decision{Notification: &domain.Notification{
		UserID:       msg.UserID,
		Text:         orDefault(match.SMSMessage, fmt.Sprintf(waitingFallbackTextFmt, msg.Service)),
		ContentType:  fmt.Sprintf(contentTypeWaitingCheckFmt, msg.Service, deliveryKind(check.NotiType)),
		FirstMessage: orDefault(match.FirstMessage, fmt.Sprintf(waitingFallbackFirstFmt, service)),
	}}, true
}

// criticalStage classifies the message and alerts when it cannot wait.
type criticalStage struct {
	senders  ports.PrioritySenderStore
	log      ports.NotificationLog
	llm      llm.Client
	cooldown time.Duration
}

func (s *criticalStage) Name() string { return StageCritical }

func (s *criticalStage) Evaluate(ctx context.Context, ev *Event) (Decision, bool) {
	msg := ev.Message
	settings := ev.Settings

	if settings.CriticalEnabled == "" {
		return Decision{}, false
	}

	service := textutil.Capitalize(string(msg.Service))

	var text, firstMessage string

	if isCallNotice(msg.Content) {
		if !settings.CallNotify {
			return Decision{Reason: reasonCallsOff}, true
		}

		text = fmt.Sprintf(incomingCallTextFmt, service, msg.ChatName)
		firstMessage = fmt.Sprintf(incomingCallFirstFmt, service, msg.ChatName)
	} else {
		verdict, err := s.llm.ClassifyCriticality(ctx, classifierInput(msg))
		if err != nil {
			ev.Logger.Error().Err(err).Msg("criticality classification failed")
			return Decision{}, false
		}

		critical, ok := verdict.(llm.Critical)
		if !ok {
			return Decision{}, false
		}

		text = orDefault(critical.WhatToInform, fmt.Sprintf(criticalFallbackTextFmt, service, msg.Service))
		firstMessage = orDefault(critical.FirstMessage, fmt.Sprintf(criticalFallbackFirstFmt, service))
	}

	if settings.ActionOnCriticalMessage == domain.ActionNotifyFamily && !s.isFamily(ctx, ev) {
		return Decision{Reason: reasonNotFamily}, true
	}

	contentType := fmt.Sprintf(contentTypeCriticalFmt, msg.Service)

	recent, err := s.log.HasRecentNotification(ctx, msg.UserID, contentType, s.cooldown)
	if err != nil {
		ev.Logger.Error().Err(err).Msg("cooldown lookup failed")
		return Decision{Reason: reasonCooldownError}, true
	}

	if recent {
		observability.CooldownHits.WithLabelValues(contentType).Inc()
		return Decision{Reason: reasonCooldown}, true
	}

	return Decision{Notification: &domain.Notification{
		UserID:       msg.UserID,
		Text:         text,
		ContentType:  contentType,
		FirstMessage: firstMessage,
	}}, true
}

func (s *criticalStage) isFamily(ctx context.Context, ev *Event) bool {
	senders, err := s.senders.ListPrioritySenders(ctx, ev.Message.UserID, string(ev.Message.Service))
	if err != nil {
		ev.Logger.Warn().Err(err).Msg("focus sender lookup failed")
		return false
	}

	_, ok := MatchPrioritySender(senders, domain.NotiModeFocus, ev.Message.ChatName, ev.Message.SenderName)

	return ok
}

func isCallNotice(content string) bool {
	return strings.Contains(content, callMarkerIncoming) || strings.Contains(content, callMarkerMissed)
}
