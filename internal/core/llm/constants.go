package llm

import "time"

// Error message templates
const (
	errRateLimiter          = "rate limiter error: %w"
	errOpenAIChatCompletion = "openai chat completion error: %w"
	errFmtWrap              = "%w: %w"
)

// Tool names and tasks.
const (
	toolWaitingCheck = "analyze_waiting_check_match"
	toolCritical     = "analyze_message"
	toolDigest       = "create_digest"

	TaskWaitingCheck = "waiting_check"
	TaskCritical     = "critical"
	TaskDigest       = "digest"
)

// Request parameters.
const (
	waitingCheckTemperature = 0.0
	criticalTemperature     = 0.2
	defaultMaxTokens        = 200
)

// Circuit breaker and limiter settings.
const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute
	rateLimiterBurst        = 5
)

// Usage tracking.
const (
	usageStorageTimeout = 5 * time.Second
	usdToMillicents     = 100000.0 // 1 USD = 100,000 millicents
	tokensPerMillion    = 1000000.0
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Request status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Log keys
const (
	logKeyTask  = "task"
	logKeyModel = "model"
)

// Model name fragments used for cost lookup.
const (
	modelPrefixGPT4O = "gpt-4o"
	modelPrefixGPT41 = "gpt-4.1"
	modelPrefixGPT5  = "gpt-5"
	modelPrefixNano  = "nano"
	modelPrefixMini  = "mini"
)
