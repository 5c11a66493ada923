package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/time/rate"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/platform/config"
	"github.com/lueurxax/proactive-notifier/internal/platform/observability"
)

// chatCompleter is the subset of *openai.Client the notifier calls.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openaiClient struct {
	client      chatCompleter
	model       string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	usage       UsageRecorder

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI creates a Client backed by the OpenAI chat completions API.
func NewOpenAI(cfg *config.Config, usage UsageRecorder, logger *zerolog.Logger) Client {
	clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		clientCfg.BaseURL = cfg.LLMBaseURL
	}

	clientCfg.HTTPClient = &http.Client{Timeout: cfg.LLMTimeout}

	return newOpenAIClient(openai.NewClientWithConfig(clientCfg), cfg.LLMModel, cfg.LLMRateLimitRPS, usage, logger)
}

func newOpenAIClient(client chatCompleter, model string, rps float64, usage UsageRecorder, logger *zerolog.Logger) *openaiClient {
	if usage == nil {
		usage = NoopUsageRecorder()
	}

	return &openaiClient{
		client:      client,
		model:       model,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
		usage:       usage,
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", apperrors.ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		observability.LLMCircuitBreakerOpens.WithLabelValues(ProviderOpenAI).Inc()
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

// toolRequest is one forced tool call.
type toolRequest struct {
	task        string
	system      string
	user        string
	tool        string
	description string
	params      jsonschema.Definition
	temperature float32
}

// callTool runs the request and returns the raw tool-call arguments.
func (c *openaiClient) callTool(ctx context.Context, req toolRequest) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", fmt.Errorf(errFmtWrap, apperrors.ErrLLMCall, err)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errFmtWrap, apperrors.ErrLLMCall, fmt.Errorf(errRateLimiter, err))
	}

	temperature := req.temperature
	if temperature == 0 {
		// A zero value is dropped by omitempty and the API would apply its default.
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.system},
			{Role: openai.ChatMessageRoleUser, Content: req.user},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.tool,
				Description: req.description,
				Parameters:  req.params,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.tool},
		},
		Temperature: temperature,
		MaxTokens:   defaultMaxTokens,
	})

	observability.LLMRequestDuration.WithLabelValues(c.model, req.task).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()
		c.usage.Record(Usage{Provider: ProviderOpenAI, Model: c.model, Task: req.task})

		return "", fmt.Errorf(errFmtWrap, apperrors.ErrLLMCall, fmt.Errorf(errOpenAIChatCompletion, err))
	}

	c.recordSuccess()
	c.usage.Record(Usage{
		Provider:         ProviderOpenAI,
		Model:            c.model,
		Task:             req.task,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Success:          true,
	})

	return toolArguments(resp, req.tool)
}

// toolArguments extracts the arguments of the named tool call.
func toolArguments(resp openai.ChatCompletionResponse, tool string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf(errFmtWrap, apperrors.ErrLLMParse, apperrors.ErrEmptyResponse)
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return "", fmt.Errorf("%w: no tool call in response", apperrors.ErrLLMParse)
	}

	if calls[0].Function.Name != tool {
		return "", fmt.Errorf("%w: unexpected tool %q", apperrors.ErrLLMParse, calls[0].Function.Name)
	}

	args := strings.TrimSpace(calls[0].Function.Arguments)
	if args == "" {
		return "", fmt.Errorf("%w: empty tool arguments", apperrors.ErrLLMParse)
	}

	return args, nil
}

// decodeStrict decodes args into dst rejecting unknown fields and trailing data.
func decodeStrict(args string, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(args)))
	dec.DisallowUnknownFields()
	dec.UseNumber()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf(errFmtWrap, apperrors.ErrLLMParse, err)
	}

	if dec.More() {
		return fmt.Errorf("%w: trailing data after tool arguments", apperrors.ErrLLMParse)
	}

	return nil
}

func (c *openaiClient) MatchWaitingCheck(ctx context.Context, message string, checks []domain.WaitingCheck) (WaitingCheckVerdict, error) {
	if len(checks) == 0 {
		return WaitingCheckNoMatch{}, nil
	}

	args, err := c.callTool(ctx, toolRequest{
		task:        TaskWaitingCheck,
		system:      waitingCheckPrompt,
		user:        fmt.Sprintf(waitingCheckUserFmt, message, formatWaitingChecks(checks)),
		tool:        toolWaitingCheck,
		description: "Determines whether the message matches a waiting check and drafts notifications",
		params:      waitingCheckSchema,
		temperature: waitingCheckTemperature,
	})
	if err != nil {
		return nil, err
	}

	verdict, err := parseWaitingCheckVerdict(args, checks)
	if err != nil {
		return nil, err
	}

	if m, ok := verdict.(WaitingCheckMatch); ok && m.Explanation != "" {
		c.logger.Debug().Int64("check_id", m.CheckID).Str("explanation", m.Explanation).Msg("waiting check match explanation")
	}

	return verdict, nil
}

func (c *openaiClient) ClassifyCriticality(ctx context.Context, message string) (CriticalityVerdict, error) {
	args, err := c.callTool(ctx, toolRequest{
		task:        TaskCritical,
		system:      criticalPrompt,
		user:        fmt.Sprintf(criticalUserFmt, message),
		tool:        toolCritical,
		description: "Analyzes if a message is critical",
		params:      criticalSchema,
		temperature: criticalTemperature,
	})
	if err != nil {
		return nil, err
	}

	return parseCriticalityVerdict(args)
}

func (c *openaiClient) ComposeDigest(ctx context.Context, request string) (string, error) {
	args, err := c.callTool(ctx, toolRequest{
		task:        TaskDigest,
		system:      digestPrompt,
		user:        request,
		tool:        toolDigest,
		description: "Creates a concise digest of messages and calendar events",
		params:      digestSchema,
	})
	if err != nil {
		return "", err
	}

	return parseDigest(args)
}

func formatWaitingChecks(checks []domain.WaitingCheck) string {
	lines := make([]string, 0, len(checks))
	for _, check := range checks {
		lines = append(lines, fmt.Sprintf(waitingCheckLineFmt, check.ID, check.Content))
	}

	return strings.Join(lines, "\n")
}
