// Package triage decides, for every incoming bridged chat message, whether the
// user should be interrupted now or whether the message can wait for a digest.
//
// Each event runs through a fixed pipeline: cheap pre-checks, the read/reply
// suppression filter, then an ordered list of policy stages where the first
// stage that reaches a decision wins. A pipeline dispatches at most one
// notification.
package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/llm"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
	"github.com/lueurxax/proactive-notifier/internal/ingest/bridge"
	"github.com/lueurxax/proactive-notifier/internal/notify"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
	"github.com/lueurxax/proactive-notifier/internal/platform/worker"
)

// Event is one triggering message with everything the stages need.
type Event struct {
	PipelineID string
	Raw        domain.BridgeEvent
	Message    domain.BridgeMessage
	Settings   *domain.UserSettings
	Logger     *zerolog.Logger
}

// Decision ends a pipeline. A nil Notification ends it without sending.
type Decision struct {
	Stage        string
	Reason       string
	Notification *domain.Notification
}

// Stage is one policy step. It returns false to hand the event to the next stage.
type Stage interface {
	Name() string
	Evaluate(ctx context.Context, ev *Event) (Decision, bool)
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Users     ports.UserStore
	Bridges   ports.BridgeStore
	Rooms     ports.RoomStore
	Timeline  ports.TimelineSource
	Checks    ports.WaitingCheckStore
	Senders   ports.PrioritySenderStore
	Log       ports.NotificationLog
	Credits   ports.CreditStore
	LLM       llm.Client
	Notifier  notify.Sender
	Registry  *Registry
	SleepFunc func(ctx context.Context, d time.Duration) error
	Now       func() time.Time
}

// Config tunes the suppression filter and the stages.
type Config struct {
	StaleAfter        time.Duration
	ShortWait         time.Duration
	LongWait          time.Duration
	ActivityThreshold time.Duration
	TimelineLimit     int
	CriticalCooldown  time.Duration
	NotiMsgCost       float64

	// BridgeBots maps a service name to its bridge bot user ID.
	BridgeBots map[string]string
}

func (c *Config) applyDefaults() {
	if c.StaleAfter <= 0 {
		c.StaleAfter = defaultStaleAfter
	}

	if c.ShortWait <= 0 {
		c.ShortWait = defaultShortWait
	}

	if c.LongWait <= 0 {
		c.LongWait = defaultLongWait
	}

	if c.ActivityThreshold <= 0 {
		c.ActivityThreshold = defaultActivityThreshold
	}

	if c.TimelineLimit <= 0 {
		c.TimelineLimit = defaultTimelineLimit
	}

	if c.CriticalCooldown <= 0 {
		c.CriticalCooldown = defaultCriticalCooldown
	}
}

// Engine runs triage pipelines.
type Engine struct {
	deps       Deps
	cfg        Config
	suppressor *Suppressor
	stages     []Stage
	logger     *zerolog.Logger
}

// NewEngine creates an engine with the default stage order:
// confirmation, priority sender, waiting check, criticality.
func NewEngine(deps Deps, cfg Config, logger *zerolog.Logger) *Engine {
	cfg.applyDefaults()

	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.SleepFunc == nil {
		deps.SleepFunc = worker.Wait
	}

	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}

	e := &Engine{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
	}

	e.suppressor = &Suppressor{
		bridges:  deps.Bridges,
		timeline: deps.Timeline,
		cfg:      cfg,
		now:      deps.Now,
		sleep:    deps.SleepFunc,
	}

	e.stages = []Stage{
		&confirmationStage{timeline: deps.Timeline, limit: cfg.TimelineLimit},
		&priorityStage{senders: deps.Senders, credits: deps.Credits, cost: cfg.NotiMsgCost},
		&waitingCheckStage{checks: deps.Checks, llm: deps.LLM},
		&criticalStage{senders: deps.Senders, log: deps.Log, llm: deps.LLM, cooldown: cfg.CriticalCooldown},
	}

	return e
}

// Stages returns the policy stages in evaluation order.
func (e *Engine) Stages() []Stage {
	return e.stages
}

// Registry returns the pipeline registry.
func (e *Engine) Registry() *Registry {
	return e.deps.Registry
}

// Process runs the full pipeline for one event and returns its outcome.
func (e *Engine) Process(ctx context.Context, raw domain.BridgeEvent, pipelineID string) (string, error) {
	logger := e.logger.With().
		Int64(logKeyUserID, raw.UserID).
		Str(logKeyEventID, raw.EventID).
		Str(logKeyPipelineID, pipelineID).
		Logger()

	if outcome, handled := e.handleManagementRoom(ctx, raw, &logger); handled {
		return outcome, nil
	}

	ev, outcome, err := e.prepare(ctx, raw, pipelineID, &logger)
	if err != nil {
		return OutcomeError, err
	}

	if outcome != "" {
		observability.Suppressed.WithLabelValues(outcome).Inc()
		logger.Debug().Str(logKeyOutcome, outcome).Msg("event dropped before classification")

		return outcome, nil
	}

	if outcome := e.suppressor.Check(ctx, ev); outcome != "" {
		observability.Suppressed.WithLabelValues(outcome).Inc()
		logger.Debug().Str(logKeyOutcome, outcome).Msg("event suppressed")

		return outcome, nil
	}

	if outcome := gate(ev); outcome != "" {
		observability.Suppressed.WithLabelValues(outcome).Inc()
		logger.Debug().Str(logKeyOutcome, outcome).Msg("event dropped by content gate")

		return outcome, nil
	}

	decision, ok := e.evaluate(ctx, ev)
	if !ok {
		observability.TriageDecisions.WithLabelValues(OutcomeDigest).Inc()
		logger.Debug().Msg("no stage fired, message left for digest")

		return OutcomeDigest, nil
	}

	observability.TriageDecisions.WithLabelValues(decision.Stage).Inc()

	outcome = decision.Stage
	if decision.Reason != "" {
		outcome = decision.Stage + ":" + decision.Reason
	}

	if decision.Notification == nil {
		logger.Info().Str(logKeyStage, decision.Stage).Str("reason", decision.Reason).Msg("stage ended pipeline without notification")

		return outcome, nil
	}

	e.dispatch(ctx, &logger, decision)

	return outcome, nil
}

// evaluate runs the stages in order until one decides.
func (e *Engine) evaluate(ctx context.Context, ev *Event) (Decision, bool) {
	for _, stage := range e.stages {
		if ctx.Err() != nil {
			return Decision{Stage: OutcomeCanceled}, true
		}

		if decision, ok := stage.Evaluate(ctx, ev); ok {
			if decision.Stage == "" {
				decision.Stage = stage.Name()
			}

			return decision, true
		}
	}

	return Decision{}, false
}

func (e *Engine) dispatch(ctx context.Context, logger *zerolog.Logger, decision Decision) {
	n := *decision.Notification

	err := e.deps.Notifier.Send(ctx, n)

	switch {
	case err == nil:
		logger.Info().Str(logKeyStage, decision.Stage).Str("content_type", n.ContentType).Msg("notification dispatched")
	case errors.Is(err, apperrors.ErrInsufficientCredits):
		logger.Warn().Str(logKeyStage, decision.Stage).Str("content_type", n.ContentType).Msg("notification skipped: insufficient credits")
	default:
		logger.Error().Err(err).Str(logKeyStage, decision.Stage).Str("content_type", n.ContentType).Msg("notification dispatch failed")
	}
}

// prepare normalizes the event and loads the user settings. A non-empty
// outcome means the event is dropped.
func (e *Engine) prepare(ctx context.Context, raw domain.BridgeEvent, pipelineID string, logger *zerolog.Logger) (*Event, string, error) {
	muted, err := e.deps.Rooms.IsRoomMuted(ctx, raw.UserID, raw.RoomID)
	if err != nil {
		logger.Warn().Err(err).Msg("mute lookup failed, treating room as unmuted")
	}

	if muted {
		return nil, OutcomeMuted, nil
	}

	msg, ok := bridge.Normalize(raw)
	if !ok {
		if raw.Service == "" {
			if _, known := bridge.InferService(raw.RoomName, raw.Sender); !known {
				return nil, OutcomeUnknownService, nil
			}
		}

		return nil, OutcomeUnsupported, nil
	}

	settings, err := e.deps.Users.GetUserSettings(ctx, raw.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, OutcomeUnknownUser, nil
		}

		return nil, "", fmt.Errorf("load user settings: %w", err)
	}

	child := logger.With().Str(logKeyService, string(msg.Service)).Logger()

	return &Event{
		PipelineID: pipelineID,
		Raw:        raw,
		Message:    msg,
		Settings:   settings,
		Logger:     &child,
	}, "", nil
}

// gate applies the content checks that run once suppression has had its
// chance to advance the last seen watermark.
func gate(ev *Event) string {
	msg := ev.Message

	switch {
	case !bridge.HasBridgePrefix(msg.Service, ev.Raw.Sender):
		return OutcomeNotBridged
	case !ev.Settings.SubscriptionActive || !ev.Settings.ProactiveAgentOn:
		return OutcomeGated
	case msg.MemberCount > maxDirectMembers && !msg.IsMention:
		return OutcomeNotMentioned
	case bridge.IsErrorText(msg.Content):
		return OutcomeErrorText
	}

	return ""
}
