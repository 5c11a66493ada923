package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	errs "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
)

const (
	elevenLabsOutboundPath = "/v1/convai/twilio/outbound-call"
	elevenLabsKeyHeader    = "xi-api-key"
	elevenLabsInitType     = "conversation_initiation_client_data"
	elevenLabsNowLayout    = "2006-01-02 15:04:05"
)

// ElevenLabsConfig configures outbound conversational-agent calls.
type ElevenLabsConfig struct {
	APIKey        string
	AgentID       string
	PhoneNumberID string
	BaseURL       string
	Timeout       time.Duration
}

// ElevenLabsClient places notification calls through an ElevenLabs agent.
type ElevenLabsClient struct {
	cfg    ElevenLabsConfig
	client *http.Client
	now    func() time.Time
}

// NewElevenLabsClient creates a voice caller.
func NewElevenLabsClient(cfg ElevenLabsConfig) *ElevenLabsClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPWait
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &ElevenLabsClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

type outboundCallRequest struct {
	AgentID            string         `json:"agent_id"`
	AgentPhoneNumberID string         `json:"agent_phone_number_id"`
	ToNumber           string         `json:"to_number"`
	InitiationData     initiationData `json:"conversation_initiation_client_data"`
}

type initiationData struct {
	Type             string            `json:"type"`
	ConfigOverride   configOverride    `json:"conversation_config_override"`
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

type configOverride struct {
	Agent agentOverride `json:"agent"`
}

type agentOverride struct {
	FirstMessage string `json:"first_message"`
}

type outboundCallResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	CallSID string `json:"callSid"` //nolint:tagliatelle
}

// PlaceCall implements ports.VoiceCaller and returns the call SID.
func (c *ElevenLabsClient) PlaceCall(ctx context.Context, call ports.VoiceCall) (string, error) {
	if call.To == "" {
		return "", fmt.Errorf("%w: empty phone number", errs.ErrInvalidInput)
	}

	payload := outboundCallRequest{
		AgentID:            c.cfg.AgentID,
		AgentPhoneNumberID: c.cfg.PhoneNumberID,
		ToNumber:           call.To,
		InitiationData: initiationData{
			Type:           elevenLabsInitType,
			ConfigOverride: configOverride{Agent: agentOverride{FirstMessage: call.FirstMessage}},
			DynamicVariables: map[string]string{
				"notification_message":     call.Message,
				"content_type":             call.ContentType,
				"user_id":                  strconv.FormatInt(call.UserID, 10),
				"now":                      c.now().UTC().Format(elevenLabsNowLayout),
				"timezone":                 call.Timezone,
				"timezone_offset_from_utc": call.TimezoneOffset,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal outbound call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+elevenLabsOutboundPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build outbound call request: %w", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(elevenLabsKeyHeader, c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("outbound call request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyReadLimit))

		return "", fmt.Errorf(errStatusBodyFmt, errs.ErrSendFailed, resp.StatusCode, string(data))
	}

	var out outboundCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode outbound call response: %w", err)
	}

	if !out.Success && out.CallSID == "" {
		return "", fmt.Errorf("%w: %s", errs.ErrSendFailed, out.Message)
	}

	return out.CallSID, nil
}
