package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/platform/textutil"
)

// mockUrgencyMarkers flag a message as critical in the mock client.
var mockUrgencyMarkers = []string{"asap", "urgent", "emergency", "right now", "immediately"}

const mockShortCheckWords = 5

// Mock is a deterministic Client for tests and local runs.
// Unset hooks fall back to simple keyword heuristics.
type Mock struct {
	mu    sync.Mutex
	calls map[string]int

	MatchWaitingCheckFn   func(ctx context.Context, message string, checks []domain.WaitingCheck) (WaitingCheckVerdict, error)
	ClassifyCriticalityFn func(ctx context.Context, message string) (CriticalityVerdict, error)
	ComposeDigestFn       func(ctx context.Context, request string) (string, error)
}

// NewMock creates a mock client.
func NewMock() *Mock {
	return &Mock{calls: make(map[string]int)}
}

// Calls returns how many times task was invoked.
func (m *Mock) Calls(task string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls[task]
}

func (m *Mock) record(task string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[task]++
}

func (m *Mock) MatchWaitingCheck(ctx context.Context, message string, checks []domain.WaitingCheck) (WaitingCheckVerdict, error) {
	m.record(TaskWaitingCheck)

	if m.MatchWaitingCheckFn != nil {
		return m.MatchWaitingCheckFn(ctx, message, checks)
	}

	for _, check := range checks {
		words := strings.Fields(check.Content)
		if len(words) == 0 || len(words) > mockShortCheckWords {
			continue
		}

		if containsAllWords(message, words) {
			return WaitingCheckMatch{
				CheckID:      check.ID,
				SMSMessage:   fmt.Sprintf("Matched waiting check: %s", check.Content),
				FirstMessage: "Hey, one of your waiting checks just matched!",
			}, nil
		}
	}

	return WaitingCheckNoMatch{}, nil
}

func (m *Mock) ClassifyCriticality(ctx context.Context, message string) (CriticalityVerdict, error) {
	m.record(TaskCritical)

	if m.ClassifyCriticalityFn != nil {
		return m.ClassifyCriticalityFn(ctx, message)
	}

	for _, marker := range mockUrgencyMarkers {
		if textutil.ContainsFold(message, marker) {
			return Critical{
				WhatToInform: textutil.TruncateRunes(message, 160),
				FirstMessage: "Hey, you have an urgent message.",
			}, nil
		}
	}

	return NotCritical{}, nil
}

func (m *Mock) ComposeDigest(ctx context.Context, request string) (string, error) {
	m.record(TaskDigest)

	if m.ComposeDigestFn != nil {
		return m.ComposeDigestFn(ctx, request)
	}

	return textutil.TruncateRunes(request, 480), nil
}

func containsAllWords(message string, words []string) bool {
	for _, w := range words {
		if !textutil.ContainsFold(message, w) {
			return false
		}
	}

	return true
}
