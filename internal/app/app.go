// Package app wires dependencies and runs the notifier's operational modes:
//
//   - Triage mode: ingest API plus the worker that decides per-message alerts
//   - Digest mode: the hourly morning/day/evening digest scheduler
//   - All mode: both in one process
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/proactive-notifier/internal/calendar"
	"github.com/lueurxax/proactive-notifier/internal/core/llm"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
	"github.com/lueurxax/proactive-notifier/internal/digest"
	"github.com/lueurxax/proactive-notifier/internal/ingest/bridge"
	"github.com/lueurxax/proactive-notifier/internal/notify"
	"github.com/lueurxax/proactive-notifier/internal/platform/config"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
	"github.com/lueurxax/proactive-notifier/internal/triage"
	db "github.com/lueurxax/proactive-notifier/internal/storage"
)

const logFieldBaseURL = "base_url"

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer serves health, metrics and the ingest API until ctx is canceled.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if a.cfg.IngestToken == "" {
		a.logger.Warn().Msg("INGEST_TOKEN is empty, ingest API accepts unauthenticated requests")
	}

	ingest := bridge.NewHandler(a.database, a.cfg.IngestToken, a.logger)
	srv.Mount(bridge.MountPattern, ingest.Routes())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunTriage runs the triage worker.
func (a *App) RunTriage(ctx context.Context) error {
	a.logger.Info().Msg("Starting triage mode")

	engine := triage.NewEngine(triage.Deps{
		Users:    a.database,
		Bridges:  a.database,
		Rooms:    a.database,
		Timeline: a.database,
		Checks:   a.database,
		Senders:  a.database,
		Log:      a.database,
		Credits:  a.database,
		LLM:      a.newLLMClient(),
		Notifier: a.newDispatcher(),
	}, triage.Config{
		StaleAfter:        a.cfg.SuppressionStaleAfter,
		ShortWait:         a.cfg.SuppressionShortWait,
		LongWait:          a.cfg.SuppressionLongWait,
		ActivityThreshold: a.cfg.SuppressionActivityThreshold,
		TimelineLimit:     a.cfg.SuppressionTimelineLimit,
		CriticalCooldown:  a.cfg.CriticalCooldown,
		NotiMsgCost:       a.cfg.NotiMsgCost,
		BridgeBots:        a.cfg.BridgeBots(),
	}, a.logger)

	w := triage.NewWorker(a.database, engine, triage.WorkerConfig{
		PollInterval:    a.cfg.WorkerPollInterval,
		BatchSize:       a.cfg.WorkerBatchSize,
		StaleClaimAfter: a.cfg.WorkerStaleClaimAfter,
	}, a.logger)

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("triage run: %w", err)
	}

	return nil
}

// RunDigest runs the digest scheduler. With once set it performs a single tick.
func (a *App) RunDigest(ctx context.Context, once bool) error {
	a.logger.Info().Bool("once", once).Msg("Starting digest mode")

	llmClient := a.newLLMClient()

	deps := digest.Deps{
		Users:    a.database,
		Bridges:  a.database,
		Messages: a.database,
		Emails:   a.database,
		Senders:  a.database,
		Locks:    a.database,
		Notifier: a.newDispatcher(),
		Composer: digest.NewComposer(llmClient, a.logger),
	}

	if a.cfg.CalendarEnabled() {
		deps.Calendar = calendar.NewGoogleProvider(a.database, calendar.Config{
			ClientID:     a.cfg.GoogleClientID,
			ClientSecret: a.cfg.GoogleClientSecret,
		}, a.logger)
	}

	if alerter := a.newAdminAlerter(); alerter != nil {
		deps.Alerts = alerter
	}

	s := digest.New(deps, digest.Config{
		Cron:           a.cfg.DigestCron,
		Concurrency:    a.cfg.DigestConcurrency,
		LeaderElection: a.cfg.LeaderElectionEnabled,
	}, a.logger)

	if once {
		if err := s.RunOnce(ctx); err != nil {
			return fmt.Errorf("digest run once: %w", err)
		}

		return nil
	}

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("digest run: %w", err)
	}

	return nil
}

// RunAll runs triage and digest in one process; the first failure stops both.
func (a *App) RunAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.RunTriage(gctx) })
	g.Go(func() error { return a.RunDigest(gctx, false) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run all: %w", err)
	}

	return nil
}

func (a *App) newLLMClient() llm.Client {
	if a.cfg.LLMAPIKey == config.LLMAPIKeyMock {
		a.logger.Warn().Msg("Using mock LLM client")
		return llm.NewMock()
	}

	if a.cfg.LLMBaseURL != "" {
		a.logger.Info().Str(logFieldBaseURL, a.cfg.LLMBaseURL).Msg("Using custom LLM endpoint")
	}

	return llm.NewOpenAI(a.cfg, llm.NewUsageRecorder(a.database, a.logger), a.logger)
}

func (a *App) newDispatcher() *notify.Dispatcher {
	deps := notify.Deps{
		Users:   a.database,
		Credits: a.database,
		Log:     a.database,
		History: a.database,
		Costs: notify.Costs{
			Msg:  a.cfg.NotiMsgCost,
			Call: a.cfg.NotiCallCost,
		},
	}

	if a.cfg.SMSEnabled() {
		deps.SMS = notify.NewTwilioClient(notify.TwilioConfig{
			AccountSID: a.cfg.TwilioAccountSID,
			AuthToken:  a.cfg.TwilioAuthToken,
			From:       a.cfg.TwilioFromNumber,
			BaseURL:    a.cfg.TwilioBaseURL,
			RateRPS:    a.cfg.TwilioRateRPS,
		})
	} else {
		a.logger.Warn().Msg("Twilio is not configured, SMS notifications will fail")
	}

	if a.cfg.VoiceEnabled() {
		deps.Voice = notify.NewElevenLabsClient(notify.ElevenLabsConfig{
			APIKey:        a.cfg.ElevenLabsAPIKey,
			AgentID:       a.cfg.ElevenLabsAgentID,
			PhoneNumberID: a.cfg.ElevenLabsPhoneNumberID,
			BaseURL:       a.cfg.ElevenLabsBaseURL,
		})
	} else {
		a.logger.Warn().Msg("ElevenLabs is not configured, call notifications will fail")
	}

	return notify.NewDispatcher(deps, a.logger)
}

// newAdminAlerter returns nil when alerts are not configured or the bot
// cannot be reached; the digest then logs bridge failures only.
func (a *App) newAdminAlerter() ports.AdminAlerter {
	if !a.cfg.AdminAlertsEnabled() {
		return nil
	}

	alerter, err := notify.NewTelegramAlerter(a.cfg.AdminBotToken, a.cfg.AdminChatID, a.logger)
	if err != nil {
		a.logger.Error().Err(err).Msg("admin alert bot initialization failed")
		return nil
	}

	return alerter
}
