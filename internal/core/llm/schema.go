package llm

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
)

var waitingCheckSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"waiting_check_id": {
			Type:        jsonschema.Number,
			Description: "ID of the matched waiting check, or null",
		},
		"sms_message": {
			Type:        jsonschema.String,
			Description: "Concise SMS (≤160 chars) when matched, else empty",
		},
		"first_message": {
			Type:        jsonschema.String,
			Description: "Voice‑assistant opening line (≤100 chars) when matched, else empty",
		},
		"match_explanation": {
			Type:        jsonschema.String,
			Description: "≤120 chars explaining why it matched, else empty",
		},
	},
	Required: []string{"waiting_check_id"},
}

var criticalSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"is_critical": {
			Type:        jsonschema.Boolean,
			Description: "Whether the message is critical and requires immediate attention",
		},
		"what_to_inform": {
			Type:        jsonschema.String,
			Description: "Concise SMS (≤160 chars) to send if the message is critical",
		},
		"first_message": {
			Type:        jsonschema.String,
			Description: "Brief voice‑assistant opening line (≤100 chars) if critical",
		},
	},
	Required: []string{"is_critical"},
}

var digestSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"digest": {
			Type:        jsonschema.String,
			Description: "The SMS-friendly digest message",
		},
	},
	Required: []string{"digest"},
}

type waitingCheckArgs struct {
	WaitingCheckID   json.RawMessage `json:"waiting_check_id"`
	SMSMessage       *string         `json:"sms_message"`
	FirstMessage     *string         `json:"first_message"`
	MatchExplanation *string         `json:"match_explanation"`
}

type criticalArgs struct {
	IsCritical   *bool   `json:"is_critical"`
	WhatToInform *string `json:"what_to_inform"`
	FirstMessage *string `json:"first_message"`
}

type digestArgs struct {
	Digest *string `json:"digest"`
}

func schemaViolation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w: %s", apperrors.ErrLLMParse, apperrors.ErrSchemaViolation, fmt.Sprintf(format, args...))
}

// parseWaitingCheckVerdict validates the tool arguments against the offered checks.
func parseWaitingCheckVerdict(args string, offered []domain.WaitingCheck) (WaitingCheckVerdict, error) {
	var raw waitingCheckArgs
	if err := decodeStrict(args, &raw); err != nil {
		return nil, err
	}

	if len(raw.WaitingCheckID) == 0 {
		return nil, schemaViolation("waiting_check_id is required")
	}

	if string(raw.WaitingCheckID) == "null" {
		return WaitingCheckNoMatch{}, nil
	}

	id, err := parseCheckID(raw.WaitingCheckID)
	if err != nil {
		return nil, err
	}

	known := false

	for _, check := range offered {
		if check.ID == id {
			known = true

			break
		}
	}

	if !known {
		return nil, schemaViolation("waiting_check_id %d was not offered", id)
	}

	return WaitingCheckMatch{
		CheckID:      id,
		SMSMessage:   deref(raw.SMSMessage),
		FirstMessage: deref(raw.FirstMessage),
		Explanation:  deref(raw.MatchExplanation),
	}, nil
}

// parseCheckID accepts integral JSON numbers, including forms like 3.0.
func parseCheckID(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, schemaViolation("waiting_check_id must be a number or null")
	}

	if id, err := n.Int64(); err == nil {
		return id, nil
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, schemaViolation("waiting_check_id %s is not an integer", n.String())
	}

	return int64(f), nil
}

func parseCriticalityVerdict(args string) (CriticalityVerdict, error) {
	var raw criticalArgs
	if err := decodeStrict(args, &raw); err != nil {
		return nil, err
	}

	if raw.IsCritical == nil {
		return nil, schemaViolation("is_critical is required")
	}

	if !*raw.IsCritical {
		return NotCritical{}, nil
	}

	return Critical{
		WhatToInform: deref(raw.WhatToInform),
		FirstMessage: deref(raw.FirstMessage),
	}, nil
}

func parseDigest(args string) (string, error) {
	var raw digestArgs
	if err := decodeStrict(args, &raw); err != nil {
		return "", err
	}

	if raw.Digest == nil {
		return "", schemaViolation("digest is required")
	}

	return *raw.Digest, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
