package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/llm"
)

// PriorityMap holds priority sender names per platform.
type PriorityMap map[string]map[string]struct{}

// Add records sender as a priority sender on platform.
func (p PriorityMap) Add(platform, sender string) {
	set, ok := p[platform]
	if !ok {
		set = make(map[string]struct{})
		p[platform] = set
	}

	set[strings.ToLower(strings.TrimSpace(sender))] = struct{}{}
}

// Has reports whether sender is a priority sender on platform.
func (p PriorityMap) Has(platform, sender string) bool {
	_, ok := p[platform][strings.ToLower(strings.TrimSpace(sender))]
	return ok
}

// Request is the input of one digest composition.
type Request struct {
	Messages []domain.MessageInfo
	Events   []domain.CalendarEvent
	Hours    int
	Priority PriorityMap
}

// Composer turns collected messages and events into SMS digest text.
type Composer struct {
	llm    llm.Client
	logger *zerolog.Logger
}

// NewComposer creates a composer.
func NewComposer(client llm.Client, logger *zerolog.Logger) *Composer {
	return &Composer{llm: client, logger: logger}
}

// Generate composes the digest. A malformed model answer yields a fixed
// placeholder text and no error. A failed call returns a placeholder text
// together with the error so the caller can choose its own fallback.
func (c *Composer) Generate(ctx context.Context, req Request) (string, error) {
	digest, err := c.llm.ComposeDigest(ctx, RenderRequest(req))

	switch {
	case err == nil:
		c.logger.Debug().Str("digest", digest).Msg("generated digest")
		return digest, nil
	case errors.Is(err, apperrors.ErrLLMParse):
		c.logger.Error().Err(err).Msg("failed to parse digest response")
		return composeParseFailed, nil
	default:
		c.logger.Error().Err(err).Msg("failed to generate digest")
		return composeFailed, fmt.Errorf("compose digest: %w", err)
	}
}

// RenderRequest builds the user message sent to the model.
func RenderRequest(req Request) string {
	lines := make([]string, 0, len(req.Messages))

	for _, m := range req.Messages {
		tag := ""
		if req.Priority.Has(m.Platform, m.Sender) {
			tag = priorityTag
		}

		lines = append(lines, fmt.Sprintf(messageLineFmt, strings.ToUpper(m.Platform), m.Sender, m.Timestamp, m.Content, tag))
	}

	out := fmt.Sprintf(requestFmt, req.Hours, strings.Join(lines, "\n"))

	if len(req.Events) == 0 {
		return out
	}

	events := make([]string, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, fmt.Sprintf(eventLineFmt, e.Title, e.StartTime, e.DurationMinutes))
	}

	return out + fmt.Sprintf(requestEventsFmt, strings.Join(events, "\n"))
}
