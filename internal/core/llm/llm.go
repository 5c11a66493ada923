// Package llm wraps the chat-completion API behind the three structured
// decisions the notifier needs: waiting-check matching, criticality
// classification and digest composition.
//
// Every call forces a single tool call and decodes its arguments strictly.
// Transport failures wrap errors.ErrLLMCall; undecodable or schema-violating
// arguments wrap errors.ErrLLMParse so callers can pick different fallbacks.
package llm

import (
	"context"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// Client is the structured LLM surface used by triage and digest.
type Client interface {
	// MatchWaitingCheck decides whether message satisfies at most one of checks.
	MatchWaitingCheck(ctx context.Context, message string, checks []domain.WaitingCheck) (WaitingCheckVerdict, error)
	// ClassifyCriticality decides whether message must reach the user within two hours.
	ClassifyCriticality(ctx context.Context, message string) (CriticalityVerdict, error)
	// ComposeDigest turns a rendered digest request into SMS text.
	ComposeDigest(ctx context.Context, request string) (string, error)
}

// WaitingCheckVerdict is either WaitingCheckMatch or WaitingCheckNoMatch.
type WaitingCheckVerdict interface {
	isWaitingCheckVerdict()
}

// WaitingCheckMatch names the consumed check and the notification copy.
type WaitingCheckMatch struct {
	CheckID      int64
	SMSMessage   string
	FirstMessage string
	Explanation  string
}

// WaitingCheckNoMatch means no check was satisfied.
type WaitingCheckNoMatch struct{}

func (WaitingCheckMatch) isWaitingCheckVerdict()   {}
func (WaitingCheckNoMatch) isWaitingCheckVerdict() {}

// CriticalityVerdict is either Critical or NotCritical.
type CriticalityVerdict interface {
	isCriticalityVerdict()
}

// Critical carries the alert copy for an urgent message.
type Critical struct {
	WhatToInform string
	FirstMessage string
}

// NotCritical means the message can wait for the digest.
type NotCritical struct{}

func (Critical) isCriticalityVerdict()    {}
func (NotCritical) isCriticalityVerdict() {}

// UsageStore persists daily token usage.
type UsageStore interface {
	IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error
}
