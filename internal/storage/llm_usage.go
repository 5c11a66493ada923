package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const incrementLLMUsageSQL = `
	INSERT INTO llm_usage (date, provider, model, task, prompt_tokens, completion_tokens, request_count, cost_usd)
	VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
	ON CONFLICT (date, provider, model, task)
	DO UPDATE SET
		prompt_tokens = llm_usage.prompt_tokens + EXCLUDED.prompt_tokens,
		completion_tokens = llm_usage.completion_tokens + EXCLUDED.completion_tokens,
		request_count = llm_usage.request_count + 1,
		cost_usd = llm_usage.cost_usd + EXCLUDED.cost_usd,
		updated_at = now()`

// IncrementLLMUsage adds one request to the UTC-day counters of a
// provider/model/task triple. Tasks are the triage and digest tool names.
func (db *DB) IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error {
	day := pgtype.Date{Time: usageDay(time.Now()), Valid: true}

	if _, err := db.Pool.Exec(ctx, incrementLLMUsageSQL,
		day, provider, model, task,
		safeIntToInt32(promptTokens), safeIntToInt32(completionTokens), cost,
	); err != nil {
		return fmt.Errorf("increment llm usage for %s: %w", task, err)
	}

	return nil
}

func usageDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
