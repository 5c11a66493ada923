package llm

import "strings"

// Cost per 1M tokens (in USD). These are approximate list prices.
const (
	costGPT4OPromptPer1M      = 2.50
	costGPT4OCompletionPer1M  = 10.00
	costGPT4OMiniPrompt       = 0.15
	costGPT4OMiniComplete     = 0.60
	costGPT41PromptPer1M      = 2.00
	costGPT41CompletionPer1M  = 8.00
	costGPT5PromptPer1M       = 1.25
	costGPT5CompletionPer1M   = 10.00
	costGPT5NanoPromptPer1M   = 0.05
	costGPT5NanoCompletePer1M = 0.40
)

// estimateCost calculates an estimated cost for a request in USD.
func estimateCost(provider, model string, promptTokens, completionTokens int) float64 {
	promptCost, completionCost := getCostRates(provider, model)

	promptUSD := float64(promptTokens) * promptCost / tokensPerMillion
	completionUSD := float64(completionTokens) * completionCost / tokensPerMillion

	return promptUSD + completionUSD
}

// getCostRates returns the cost per 1M tokens for prompt and completion.
func getCostRates(provider, model string) (promptRate, completionRate float64) {
	if provider == ProviderMock {
		return 0, 0
	}

	model = strings.ToLower(model)

	switch {
	case strings.Contains(model, modelPrefixGPT5) && strings.Contains(model, modelPrefixNano):
		return costGPT5NanoPromptPer1M, costGPT5NanoCompletePer1M
	case strings.Contains(model, modelPrefixGPT5):
		return costGPT5PromptPer1M, costGPT5CompletionPer1M
	case strings.Contains(model, modelPrefixGPT41):
		return costGPT41PromptPer1M, costGPT41CompletionPer1M
	case strings.Contains(model, modelPrefixGPT4O) && strings.Contains(model, modelPrefixMini):
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	case strings.Contains(model, modelPrefixGPT4O):
		return costGPT4OPromptPer1M, costGPT4OCompletionPer1M
	default:
		// Unknown models are billed at gpt-4o-mini rates as a conservative estimate.
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	}
}
