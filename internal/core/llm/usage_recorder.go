package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
)

// Usage describes one completion request.
type Usage struct {
	Provider         string
	Model            string
	Task             string
	PromptTokens     int
	CompletionTokens int
	Success          bool
}

func (u Usage) status() string {
	if u.Success {
		return StatusSuccess
	}

	return StatusError
}

// UsageRecorder receives one Usage per completion request.
type UsageRecorder interface {
	Record(u Usage)
}

// usageRecorder exports Prometheus counters and, for successful requests,
// adds the tokens to the daily llm_usage row.
type usageRecorder struct {
	store  UsageStore
	logger *zerolog.Logger
}

// NewUsageRecorder creates a recorder. store may be nil to skip persistence.
func NewUsageRecorder(store UsageStore, logger *zerolog.Logger) UsageRecorder {
	return &usageRecorder{store: store, logger: logger}
}

func (r *usageRecorder) Record(u Usage) {
	observability.LLMRequests.WithLabelValues(u.Provider, u.Model, u.Task, u.status()).Inc()

	if !u.Success {
		return
	}

	if u.PromptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(u.Provider, u.Model, u.Task).Add(float64(u.PromptTokens))
	}

	if u.CompletionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(u.Provider, u.Model, u.Task).Add(float64(u.CompletionTokens))
	}

	cost := estimateCost(u.Provider, u.Model, u.PromptTokens, u.CompletionTokens)
	if cost > 0 {
		observability.LLMEstimatedCost.WithLabelValues(u.Provider, u.Model, u.Task).Add(cost * usdToMillicents)
	}

	if r.store != nil {
		go r.persist(u, cost)
	}
}

// persist runs detached from the request; a lost row only skews accounting.
func (r *usageRecorder) persist(u Usage, cost float64) {
	ctx, cancel := context.WithTimeout(context.Background(), usageStorageTimeout)
	defer cancel()

	err := r.store.IncrementLLMUsage(ctx, u.Provider, u.Model, u.Task, u.PromptTokens, u.CompletionTokens, cost)
	if err != nil {
		r.logger.Debug().Err(err).Str(logKeyTask, u.Task).Msg("failed to persist llm usage")
	}
}

type noopUsageRecorder struct{}

// NoopUsageRecorder returns a UsageRecorder that records nothing.
func NoopUsageRecorder() UsageRecorder {
	return noopUsageRecorder{}
}

func (noopUsageRecorder) Record(Usage) {}
