package triage

import (
	"context"
	"errors"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
)

// Suppressor drops events the user has already read or answered.
type Suppressor struct {
	bridges  ports.BridgeStore
	timeline ports.TimelineSource
	cfg      Config
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// Delay picks the wait before classifying: long when the user was seen
// recently so bursts collapse, short otherwise.
func (s *Suppressor) Delay(lastSeen *time.Time) time.Duration {
	if lastSeen != nil && s.now().Sub(*lastSeen) <= s.cfg.ActivityThreshold {
		return s.cfg.LongWait
	}

	return s.cfg.ShortWait
}

// Check waits out the suppression delay and returns a non-empty outcome when
// the event must not be classified. Lookup failures after the delay let the
// event through.
func (s *Suppressor) Check(ctx context.Context, ev *Event) string {
	trigger := ev.Message.Timestamp
	service := ev.Message.Service
	userID := ev.Message.UserID

	if s.now().Sub(trigger) > s.cfg.StaleAfter {
		return OutcomeStale
	}

	var lastSeen *time.Time

	b, err := s.bridges.GetBridge(ctx, userID, service)

	switch {
	case errors.Is(err, apperrors.ErrBridgeNotFound):
		return OutcomeNoBridge
	case err != nil:
		ev.Logger.Warn().Err(err).Msg("bridge lookup failed, using short wait")
	default:
		lastSeen = b.LastSeenOnline
	}

	delay := s.Delay(lastSeen)
	observability.PipelineDelaySeconds.Observe(delay.Seconds())

	if err := s.sleep(ctx, delay); err != nil {
		return OutcomeCanceled
	}

	if seen, ok := s.readAfter(ctx, ev); ok {
		s.markSeen(ctx, ev, userID, service, seen)
		return OutcomeRead
	}

	if seen, ok := s.repliedAfter(ctx, ev); ok {
		s.markSeen(ctx, ev, userID, service, seen)
		return OutcomeReplied
	}

	return ""
}

func (s *Suppressor) readAfter(ctx context.Context, ev *Event) (time.Time, bool) {
	receipt, err := s.timeline.ReadReceipt(ctx, ev.Message.UserID, ev.Message.RoomID)
	if err != nil {
		ev.Logger.Warn().Err(err).Msg("read receipt lookup failed")
		return time.Time{}, false
	}

	if receipt == nil || receipt.Timestamp.Before(ev.Message.Timestamp) {
		return time.Time{}, false
	}

	return receipt.Timestamp, true
}

func (s *Suppressor) repliedAfter(ctx context.Context, ev *Event) (time.Time, bool) {
	events, err := s.timeline.RecentRoomEvents(ctx, ev.Message.UserID, ev.Message.RoomID, s.cfg.TimelineLimit)
	if err != nil {
		ev.Logger.Warn().Err(err).Msg("timeline lookup failed")
		return time.Time{}, false
	}

	for _, e := range events {
		if e.IsOwn && e.Timestamp.After(ev.Message.Timestamp) {
			return e.Timestamp, true
		}
	}

	return time.Time{}, false
}

func (s *Suppressor) markSeen(ctx context.Context, ev *Event, userID int64, service domain.Service, seen time.Time) {
	if err := s.bridges.UpdateBridgeLastSeen(ctx, userID, service, seen); err != nil {
		ev.Logger.Warn().Err(err).Msg("failed to update last seen watermark")
	}
}
