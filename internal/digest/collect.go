package digest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/ingest/bridge"
	"github.com/lueurxax/proactive-notifier/internal/platform/textutil"
)

// collectEvents reads calendar events in [now, now+hoursToNext]. Missing or
// failing calendars contribute nothing.
func (s *Scheduler) collectEvents(ctx context.Context, userID int64, now time.Time, hoursToNext int, logger *zerolog.Logger) []domain.CalendarEvent {
	if s.deps.Calendar == nil {
		return nil
	}

	active, err := s.deps.Calendar.HasActiveCalendar(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check calendar connection")
		return nil
	}

	if !active {
		logger.Debug().Msg("no active calendar")
		return nil
	}

	events, err := s.deps.Calendar.FetchEvents(ctx, userID, now, now.Add(time.Duration(hoursToNext)*time.Hour))
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch calendar events")
		return nil
	}

	return events
}

// collectEmails reads inbox messages received since cutoff.
func (s *Scheduler) collectEmails(ctx context.Context, userID int64, cutoff time.Time, loc *time.Location, logger *zerolog.Logger) []domain.MessageInfo {
	if s.deps.Emails == nil {
		return nil
	}

	connected, err := s.deps.Emails.HasEmailConnection(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check email connection")
		return nil
	}

	if !connected {
		logger.Debug().Msg("skipping email fetch, no inbox connected")
		return nil
	}

	emails, err := s.deps.Emails.RecentEmails(ctx, userID, emailLimit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch emails for digest")
		return nil
	}

	var out []domain.MessageInfo

	for _, e := range emails {
		// Undated mail cannot be placed in the window.
		if e.Date.IsZero() || e.Date.Before(cutoff) {
			continue
		}

		out = append(out, domain.MessageInfo{
			Sender:    orDefault(e.From, defaultEmailSender),
			Content:   orDefault(e.Snippet, defaultEmailContent),
			Timestamp: formatTimestamp(e.Date, loc),
			Platform:  platformEmail,
			SortTime:  e.Date,
		})
	}

	return out
}

// collectBridge reads unread messages of one bridged platform. A failed
// connection check raises an admin alert; the platform then contributes nothing.
func (s *Scheduler) collectBridge(ctx context.Context, userID int64, service domain.Service, cutoff time.Time, loc *time.Location, logger *zerolog.Logger) []domain.MessageInfo {
	b, err := s.deps.Bridges.GetBridge(ctx, userID, service)

	switch {
	case errors.Is(err, apperrors.ErrBridgeNotFound):
		logger.Debug().Msg("bridge not connected")
		return nil
	case err != nil:
		logger.Error().Err(err).Msg("failed to check bridge connection")
		s.alertBridgeCheck(ctx, userID, service, err, logger)

		return nil
	case !b.Connected():
		logger.Warn().Err(apperrors.ErrBridgeNotConnected).Str("status", b.Status).Msg("skipping bridge messages")
		return nil
	}

	events, err := s.deps.Messages.RecentUnreadEvents(ctx, userID, service, cutoff)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch bridge messages for digest")
		return nil
	}

	perRoom := make(map[string]int)

	var out []domain.MessageInfo

	for _, ev := range events {
		if ev.IsOwn || perRoom[ev.RoomID] >= bridgeRoomMessages || !bridge.HasBridgePrefix(service, ev.Sender) {
			continue
		}

		content, ok := bridge.MessageContent(ev.MsgType, ev.Body, ev.FormattedBody)
		if !ok || bridge.IsErrorText(content) {
			continue
		}

		perRoom[ev.RoomID]++

		out = append(out, domain.MessageInfo{
			Sender:    textutil.RemoveBridgeSuffix(ev.RoomName),
			Content:   content,
			Timestamp: formatTimestamp(ev.Timestamp, loc),
			Platform:  string(service),
			SortTime:  ev.Timestamp,
		})
	}

	logger.Debug().Int("count", len(out)).Msg("fetched bridge messages for digest")

	return out
}

func (s *Scheduler) alertBridgeCheck(ctx context.Context, userID int64, service domain.Service, cause error, logger *zerolog.Logger) {
	if s.deps.Alerts == nil {
		return
	}

	platform := textutil.Capitalize(string(service))
	subject := fmt.Sprintf(alertSubjectFmt, platform)
	body := fmt.Sprintf(alertBodyFmt, platform, userID, cause, s.deps.Now().UTC().Format(alertTimeFmt))

	if err := s.deps.Alerts.SendAlert(ctx, subject, body); err != nil {
		logger.Error().Err(err).Msg("failed to send admin alert")
	}
}

// priorityMap loads the priority senders of every digest platform.
func (s *Scheduler) priorityMap(ctx context.Context, userID int64, logger *zerolog.Logger) PriorityMap {
	pm := make(PriorityMap)

	platforms := []string{platformEmail}
	for _, svc := range domain.BridgeServices {
		platforms = append(platforms, string(svc))
	}

	for _, platform := range platforms {
		senders, err := s.deps.Senders.ListPrioritySenders(ctx, userID, platform)
		if err != nil {
			logger.Warn().Err(err).Str(logKeyPlatform, platform).Msg("failed to load priority senders")
			continue
		}

		for _, p := range senders {
			pm.Add(platform, p.Sender)
		}
	}

	return pm
}

// SortMessages orders messages by platform, priority senders first within a
// platform, then newest first.
func SortMessages(messages []domain.MessageInfo, pm PriorityMap) {
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}

		aPri, bPri := pm.Has(a.Platform, a.Sender), pm.Has(b.Platform, b.Sender)
		if aPri != bPri {
			return aPri
		}

		return a.SortTime.After(b.SortTime)
	})
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return noTimestamp
	}

	return t.In(loc).Format(timestampFmt)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
