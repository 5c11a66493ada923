package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
	"github.com/lueurxax/proactive-notifier/internal/platform/worker"
)

const (
	workerName             = "triage"
	releaseClaimsTask      = "release-stale-claims"
	releaseClaimsInterval  = 5 * time.Minute
	releaseClaimsTimeout   = 30 * time.Second
	defaultPollInterval    = 5 * time.Second
	defaultBatchSize       = 20
	defaultStaleClaimAfter = 30 * time.Minute
	shutdownGrace          = 10 * time.Second
)

// WorkerConfig tunes the polling loop.
type WorkerConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	StaleClaimAfter time.Duration
}

// Worker claims queued events and runs one detached pipeline per event.
type Worker struct {
	queue    ports.EventQueue
	engine   *Engine
	inflight *worker.Inflight
	cfg      WorkerConfig
	logger   *zerolog.Logger
}

// NewWorker creates a triage worker.
func NewWorker(queue ports.EventQueue, engine *Engine, cfg WorkerConfig, logger *zerolog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	if cfg.StaleClaimAfter <= 0 {
		cfg.StaleClaimAfter = defaultStaleClaimAfter
	}

	return &Worker{
		queue:    queue,
		engine:   engine,
		inflight: worker.NewInflight(logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Run polls until ctx is canceled, then cancels running pipelines and waits
// briefly for them to return. Unfinished events stay claimed and are
// re-queued by the stale-claim sweep after a restart.
func (w *Worker) Run(ctx context.Context) error {
	err := worker.Loop(ctx, worker.Config{
		Name:         workerName,
		PollInterval: w.cfg.PollInterval,
		Process:      w.Poll,
		PeriodicTasks: []worker.PeriodicTask{
			{Name: releaseClaimsTask, Interval: releaseClaimsInterval, Run: w.releaseStaleClaims},
		},
		Logger: w.logger,
	})

	w.engine.Registry().CancelAll()

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if waitErr := w.inflight.Wait(waitCtx); waitErr != nil {
		w.logger.Warn().Err(waitErr).Msg("pipelines still running at shutdown")
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// Poll claims one batch and spawns its pipelines.
func (w *Worker) Poll(ctx context.Context) error {
	events, err := w.queue.ClaimPendingEvents(ctx, w.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("claim pending events: %w", err)
	}

	observability.TriageBacklog.Set(float64(len(events)))

	for _, ev := range events {
		w.spawn(ctx, ev)
	}

	return nil
}

// Wait blocks until every spawned pipeline returned.
func (w *Worker) Wait(ctx context.Context) error {
	return w.inflight.Wait(ctx)
}

func (w *Worker) spawn(ctx context.Context, ev domain.BridgeEvent) {
	registry := w.engine.Registry()
	pctx, pipelineID, release := registry.Start(ctx, ev.UserID)
	observability.PipelinesInflight.Set(float64(registry.Size()))

	w.logger.Debug().
		Int64(logKeyUserID, ev.UserID).
		Str(logKeyPipelineID, pipelineID).
		Int("user_pipelines", registry.Count(ev.UserID)).
		Msg("pipeline started")

	w.inflight.Go("triage pipeline", func() {
		defer func() {
			release()
			observability.PipelinesInflight.Set(float64(registry.Size()))
		}()

		outcome, err := w.engine.Process(pctx, ev, pipelineID)
		if err != nil {
			w.logger.Error().Err(err).Str(logKeyEventID, ev.EventID).Msg("triage pipeline failed")
		}

		// Shutdown leaves the claim in place so the event is retried.
		if ctx.Err() != nil {
			return
		}

		if err := w.queue.MarkEventProcessed(ctx, ev.EventID, outcome); err != nil {
			w.logger.Error().Err(err).Str(logKeyEventID, ev.EventID).Msg("failed to mark event processed")
		}
	})
}

func (w *Worker) releaseStaleClaims(ctx context.Context) {
	var n int64

	err := worker.RunWithTimeout(ctx, releaseClaimsTimeout, func(ctx context.Context) error {
		var err error

		n, err = w.queue.ReleaseStaleClaims(ctx, w.cfg.StaleClaimAfter)

		return err
	})
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to release stale claims")
		return
	}

	if n > 0 {
		w.logger.Warn().Int64("count", n).Msg("re-queued stale event claims")
	}
}
