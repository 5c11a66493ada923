package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
)

func TestTwilioClient_SendSMS(t *testing.T) {
	var gotForm url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sid":"SMabc","status":"queued"}`)
	}))
	defer srv.Close()

	c := NewTwilioClient(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+10000000000",
		BaseURL:    srv.URL + "/",
		RateRPS:    100,
	})

	sid, err := c.SendSMS(context.Background(), "+358401234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "SMabc", sid)
	assert.Equal(t, "+358401234567", gotForm.Get("To"))
	assert.Equal(t, "+10000000000", gotForm.Get("From"))
	assert.Equal(t, "hello", gotForm.Get("Body"))
}

func TestTwilioClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "invalid number", status: http.StatusBadRequest, body: `{"code":21211,"message":"invalid To","status":400}`, wantMsg: "invalid To"},
		{name: "bad credentials", status: http.StatusUnauthorized, body: `{"code":20003,"message":"Authenticate","status":401}`, wantMsg: "Authenticate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set(headerContentType, contentTypeJSON)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewTwilioClient(TwilioConfig{AccountSID: "AC1", BaseURL: srv.URL, RateRPS: 100})

			_, err := c.SendSMS(context.Background(), "+1", "x")
			require.ErrorIs(t, err, apperrors.ErrSendFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTwilioClient_EmptyNumber(t *testing.T) {
	c := NewTwilioClient(TwilioConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := c.SendSMS(context.Background(), "", "x")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestElevenLabsClient_PlaceCall(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, elevenLabsOutboundPath, r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get(elevenLabsKeyHeader))
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = io.WriteString(w, `{"success":true,"message":"ok","callSid":"CA42"}`)
	}))
	defer srv.Close()

	c := NewElevenLabsClient(ElevenLabsConfig{APIKey: "key-1", AgentID: "agent", PhoneNumberID: "pn", BaseURL: srv.URL})
	c.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	sid, err := c.PlaceCall(context.Background(), ports.VoiceCall{
		UserID:         5,
		To:             "+358401234567",
		FirstMessage:   "Hello",
		Message:        "Server down",
		ContentType:    "whatsapp_critical",
		Timezone:       "Europe/Helsinki",
		TimezoneOffset: "+02:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "CA42", sid)

	assert.Equal(t, "agent", got["agent_id"])
	assert.Equal(t, "pn", got["agent_phone_number_id"])
	assert.Equal(t, "+358401234567", got["to_number"])

	initData, ok := got["conversation_initiation_client_data"].(map[string]any)
	require.True(t, ok)

	vars, ok := initData["dynamic_variables"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Server down", vars["notification_message"])
	assert.Equal(t, "5", vars["user_id"])
	assert.Equal(t, "+02:00", vars["timezone_offset_from_utc"])
	assert.Equal(t, "2026-03-01 09:30:00", vars["now"])

	override, ok := initData["conversation_config_override"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"first_message": "Hello"}, override["agent"])
}

func TestElevenLabsClient_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"number blocked"}`)
	}))
	defer srv.Close()

	c := NewElevenLabsClient(ElevenLabsConfig{BaseURL: srv.URL})

	_, err := c.PlaceCall(context.Background(), ports.VoiceCall{To: "+1"})
	require.ErrorIs(t, err, apperrors.ErrSendFailed)
	assert.Contains(t, err.Error(), "number blocked")
}

func TestTelegramAlerter_SendAlert(t *testing.T) {
	var sentText string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)

		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"alerts","username":"alerts_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			require.NoError(t, r.ParseForm())
			sentText = r.Form.Get("text")
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":-100,"type":"group"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	logger := zerolog.Nop()

	a, err := NewTelegramAlerterWithEndpoint("123:abc", srv.URL+"/bot%s/%s", -100, &logger)
	require.NoError(t, err)

	require.NoError(t, a.SendAlert(context.Background(), "Bridge Check Failed - Whatsapp", "User ID: 7"))
	assert.Equal(t, fmt.Sprintf("%s\n\n%s", "Bridge Check Failed - Whatsapp", "User ID: 7"), sentText)
}
