package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_events_ingested_total",
		Help: "The total number of mirrored bridge events accepted by the ingest API",
	}, []string{"service", "kind"})

	TriageDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_triage_decisions_total",
		Help: "Triage pipeline outcomes by deciding stage",
	}, []string{"stage"})

	Suppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_suppressed_total",
		Help: "Events dropped before classification by reason",
	}, []string{"reason"})

	PipelinesInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifier_pipelines_inflight",
		Help: "Number of per-event triage pipelines currently waiting or running",
	})

	PipelineDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notifier_pipeline_delay_seconds",
		Help:    "Suppression delay chosen before classifying an event",
		Buckets: []float64{30, 60, 120, 300, 600, 900},
	})

	TriageBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifier_triage_backlog_size",
		Help: "Number of claimed-but-unprocessed bridge events in the last poll",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_notifications_total",
		Help: "Outbound notifications by channel, content type and status",
	}, []string{"channel", "content_type", "status"})

	CooldownHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_cooldown_hits_total",
		Help: "Critical notifications skipped because of an active cooldown",
	}, []string{"content_type"})

	Digests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_digests_total",
		Help: "Digest slot evaluations by slot and status",
	}, []string{"slot", "status"})

	DigestItems = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifier_digest_items",
		Help:    "Number of messages and events fed into a digest",
		Buckets: []float64{0, 1, 3, 5, 10, 20, 50, 100},
	}, []string{"slot"})

	DigestTickDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notifier_digest_tick_duration_seconds",
		Help:    "Duration of one digest scheduler tick across all users",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})

	AdminAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_admin_alerts_total",
		Help: "Admin alerts by status",
	}, []string{"status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifier_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"model", "task"})

	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_llm_tokens_prompt_total",
		Help: "Total number of prompt tokens used",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_llm_tokens_completion_total",
		Help: "Total number of completion tokens used",
	}, []string{"provider", "model", "task"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "task", "status"})

	LLMCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_llm_circuit_breaker_opens_total",
		Help: "Total number of times LLM circuit breaker opened",
	}, []string{"provider"})

	// LLM estimated costs (in millicents to avoid floating point issues)
	LLMEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_llm_estimated_cost_millicents_total",
		Help: "Estimated LLM cost in millicents (0.001 cents)",
	}, []string{"provider", "model", "task"})
)
