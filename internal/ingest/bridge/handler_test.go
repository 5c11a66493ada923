package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/core/ports/mocks"
)

const testToken = "ingest-secret"

func newTestHandler(t *testing.T, token string) (*mocks.Store, http.Handler) {
	t.Helper()

	store := mocks.NewStore()
	logger := zerolog.Nop()

	return store, NewHandler(store, token, &logger).Routes()
}

func post(h http.Handler, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Event(t *testing.T) {
	store, h := newTestHandler(t, testToken)

	body := `{"event_id":"$e1","user_id":3,"room_id":"!r:hs","room_name":"Mom (WA)",
		"sender":"@whatsapp_1:hs","msgtype":"m.text","body":"hi","timestamp_ms":1767261600000,"member_count":2}`

	rec := post(h, "/v1/bridge/events", testToken, body)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"stored":true,"queued":true}`, rec.Body.String())
	assert.Equal(t, 1, store.PendingCount())

	events, err := store.RecentRoomEvents(context.Background(), 3, "!r:hs", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ServiceWhatsApp, events[0].Service)
	assert.Equal(t, time.UnixMilli(1767261600000).UTC(), events[0].Timestamp)

	rec = post(h, "/v1/bridge/events", testToken, body)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"stored":false,"queued":false,"ignored":true}`, rec.Body.String())
}

func TestHandler_OwnEventNotQueued(t *testing.T) {
	store, h := newTestHandler(t, "")

	rec := post(h, "/v1/bridge/events", "", `{"event_id":"$own","user_id":3,"room_id":"!r:hs",
		"sender":"@me:hs","is_own":true,"body":"on it","timestamp_ms":1767261600000}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 0, store.PendingCount())
}

func TestHandler_Validation(t *testing.T) {
	_, h := newTestHandler(t, testToken)

	tests := []struct {
		name   string
		path   string
		token  string
		body   string
		status int
	}{
		{"missing token", "/v1/bridge/events", "", `{}`, http.StatusUnauthorized},
		{"wrong token", "/v1/bridge/events", "nope", `{}`, http.StatusUnauthorized},
		{"missing fields", "/v1/bridge/events", testToken, `{"event_id":"$x"}`, http.StatusBadRequest},
		{"unknown field", "/v1/bridge/events", testToken, `{"event_id":"$x","bogus":1}`, http.StatusBadRequest},
		{"bad receipt", "/v1/bridge/receipts", testToken, `{"user_id":1}`, http.StatusBadRequest},
		{"unknown room service", "/v1/bridge/rooms", testToken, `{"user_id":1,"room_id":"!r","display_name":"Chat"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandler_ReceiptAndRoom(t *testing.T) {
	store, h := newTestHandler(t, "")
	ctx := context.Background()

	rec := post(h, "/v1/bridge/receipts", "", `{"user_id":3,"room_id":"!r:hs","event_id":"$e1","timestamp_ms":1767261600000}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	receipt, err := store.ReadReceipt(ctx, 3, "!r:hs")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, "$e1", receipt.EventID)

	rec = post(h, "/v1/bridge/rooms", "", `{"user_id":3,"room_id":"!r:hs","display_name":"Mom (WA)","muted":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	muted, err := store.IsRoomMuted(ctx, 3, "!r:hs")
	require.NoError(t, err)
	assert.True(t, muted)
}

func TestHandler_Email(t *testing.T) {
	store, h := newTestHandler(t, "")

	rec := post(h, "/v1/emails", "", `{"user_id":3,"message_id":"<m1@x>","from":"boss@example.com",
		"subject":"Deadline","snippet":"<p>Need it <b>today</b></p>","date":"Mon, 02 Feb 2026 09:15:00 +0200"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	emails, err := store.RecentEmails(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "Need it today", emails[0].Snippet)
	assert.Equal(t, time.Date(2026, 2, 2, 7, 15, 0, 0, time.UTC), emails[0].Date)
}
