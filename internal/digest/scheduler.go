// Package digest sends the morning, day and evening summaries of unread
// messages and upcoming calendar events.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
	"github.com/lueurxax/proactive-notifier/internal/notify"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
	"github.com/lueurxax/proactive-notifier/internal/platform/schedule"
)

// Deps are the collaborators of a Scheduler. Calendar, Emails and Alerts may be nil.
type Deps struct {
	Users    ports.UserStore
	Bridges  ports.BridgeStore
	Messages ports.BridgeMessageSource
	Emails   ports.EmailSource
	Calendar ports.CalendarProvider
	Senders  ports.PrioritySenderStore
	Locks    ports.LockStore
	Alerts   ports.AdminAlerter
	Notifier notify.Sender
	Composer *Composer
	Now      func() time.Time
}

// Config tunes the scheduler.
type Config struct {
	Cron           string
	Concurrency    int
	LeaderElection bool
	LockID         int64
}

// Scheduler evaluates every digest slot of every user on each tick.
type Scheduler struct {
	deps   Deps
	cfg    Config
	logger *zerolog.Logger
}

// New creates a scheduler.
func New(deps Deps, cfg Config, logger *zerolog.Logger) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if cfg.Cron == "" {
		cfg.Cron = defaultCron
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	if cfg.LockID == 0 {
		cfg.LockID = DefaultLockID
	}

	return &Scheduler{deps: deps, cfg: cfg, logger: logger}
}

// Run fires a tick on the configured cron schedule until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(s.cfg.Cron, func() { s.runOnceWithLock(ctx) }); err != nil {
		return fmt.Errorf("invalid digest cron %q: %w", s.cfg.Cron, err)
	}

	s.logger.Info().Str("cron", s.cfg.Cron).Msg("starting digest scheduler")
	c.Start()

	<-ctx.Done()

	stopped := c.Stop()

	select {
	case <-stopped.Done():
	case <-time.After(stopTimeout):
		s.logger.Warn().Msg("digest scheduler stop timed out")
	}

	return nil
}

func (s *Scheduler) runOnceWithLock(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("digest tick failed")
	}
}

// RunOnce evaluates every slot of every digest user once. With leader
// election on, a tick is skipped when another instance holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	logger := s.logger.With().Str(logKeyCorrelationID, uuid.NewString()).Logger()

	if !s.cfg.LeaderElection {
		return s.tick(ctx, &logger)
	}

	acquired, err := s.deps.Locks.TryAcquireAdvisoryLock(ctx, s.cfg.LockID)
	if err != nil {
		return fmt.Errorf("acquire digest lock: %w", err)
	}

	if !acquired {
		logger.Debug().Msg("did not acquire digest lock, skipping")
		return nil
	}

	defer func() {
		if err := s.deps.Locks.ReleaseAdvisoryLock(context.WithoutCancel(ctx), s.cfg.LockID); err != nil {
			logger.Error().Err(err).Msg("failed to release digest lock")
		}
	}()

	return s.tick(ctx, &logger)
}

func (s *Scheduler) tick(ctx context.Context, logger *zerolog.Logger) error {
	start := time.Now()
	defer func() { observability.DigestTickDurationSeconds.Observe(time.Since(start).Seconds()) }()

	users, err := s.deps.Users.ListDigestUsers(ctx)
	if err != nil {
		return fmt.Errorf("list digest users: %w", err)
	}

	logger.Debug().Int("users", len(users)).Msg("starting digest check")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, user := range users {
		g.Go(func() error {
			for _, slot := range Slots {
				if _, err := s.CheckSlot(gctx, user, slot); err != nil {
					logger.Error().Err(err).Int64(logKeyUserID, user.UserID).Str(logKeySlot, slot.Name).Msg("digest slot failed")
				}
			}

			return nil
		})
	}

	return g.Wait()
}

// CheckSlot sends the slot's digest when the user's local hour equals the
// configured hour and there is something to report. It returns the slot status.
func (s *Scheduler) CheckSlot(ctx context.Context, user domain.UserSettings, slot Slot) (string, error) {
	status, err := s.checkSlot(ctx, user, slot)
	if status != StatusNotDue && status != StatusDisabled {
		observability.Digests.WithLabelValues(slot.Name, status).Inc()
	}

	return status, err
}

func (s *Scheduler) checkSlot(ctx context.Context, user domain.UserSettings, slot Slot) (string, error) {
	setting := slot.Setting(user.Digest)
	if setting == "" || user.Timezone == "" {
		return StatusDisabled, nil
	}

	logger := s.logger.With().Int64(logKeyUserID, user.UserID).Str(logKeySlot, slot.Name).Logger()

	loc, err := schedule.Location(user.Timezone)
	if err != nil {
		return StatusInvalid, fmt.Errorf("%w %q: %w", apperrors.ErrInvalidTimezone, user.Timezone, err)
	}

	hour, err := schedule.ParseHour(setting)
	if err != nil {
		return StatusInvalid, fmt.Errorf("%w %q: %w", apperrors.ErrInvalidDigestHour, setting, err)
	}

	now := s.deps.Now().In(loc)
	if now.Hour() != hour {
		return StatusNotDue, nil
	}

	hoursToNext, hoursSincePrev := slot.Window(hour, user.Digest)
	cutoff := now.Add(-time.Duration(hoursSincePrev) * time.Hour)

	events := s.collectEvents(ctx, user.UserID, now, hoursToNext, &logger)
	messages := s.collectEmails(ctx, user.UserID, cutoff, loc, &logger)

	for _, svc := range domain.BridgeServices {
		platformLogger := logger.With().Str(logKeyPlatform, string(svc)).Logger()
		messages = append(messages, s.collectBridge(ctx, user.UserID, svc, cutoff, loc, &platformLogger)...)
	}

	observability.DigestItems.WithLabelValues(slot.Name).Observe(float64(len(messages) + len(events)))

	if len(messages) == 0 && len(events) == 0 {
		logger.Debug().Msg("nothing to report, skipping digest")
		return StatusEmpty, nil
	}

	pm := s.priorityMap(ctx, user.UserID, &logger)
	SortMessages(messages, pm)

	text, err := s.deps.Composer.Generate(ctx, Request{
		Messages: messages,
		Events:   events,
		Hours:    hoursSincePrev,
		Priority: pm,
	})
	if err != nil {
		text = slot.Fallback(hoursSincePrev, hoursToNext)
	} else {
		text = slot.Greet(text)
	}

	logger.Info().
		Int("hour", hour).
		Str("timezone", user.Timezone).
		Int("messages", len(messages)).
		Int("events", len(events)).
		Msg("sending digest")

	err = s.deps.Notifier.Send(ctx, domain.Notification{
		UserID:       user.UserID,
		Text:         text,
		ContentType:  slot.ContentType(),
		FirstMessage: slot.VoiceOpener,
	})

	switch {
	case err == nil:
		return StatusSent, nil
	case errors.Is(err, apperrors.ErrInsufficientCredits):
		logger.Warn().Msg("digest skipped: insufficient credits")
		return StatusError, nil
	default:
		return StatusError, fmt.Errorf("send digest: %w", err)
	}
}
