package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	db "github.com/lueurxax/proactive-notifier/internal/storage"
)

type mockTokenStore struct {
	mu     sync.Mutex
	tokens map[int64]db.CalendarToken
	saved  []db.CalendarToken
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{tokens: make(map[int64]db.CalendarToken)}
}

func (m *mockTokenStore) HasActiveCalendar(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.tokens[userID]

	return ok, nil
}

func (m *mockTokenStore) GetCalendarToken(_ context.Context, userID int64) (*db.CalendarToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	return &t, nil
}

func (m *mockTokenStore) SaveCalendarToken(_ context.Context, t db.CalendarToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[t.UserID] = t
	m.saved = append(m.saved, t)

	return nil
}

func TestToCalendarEvents(t *testing.T) {
	items := []*gcal.Event{
		{
			Summary: "Standup",
			Start:   &gcal.EventDateTime{DateTime: "2026-03-10T09:00:00+02:00"},
			End:     &gcal.EventDateTime{DateTime: "2026-03-10T09:15:00+02:00"},
		},
		{
			Summary: "Holiday",
			Start:   &gcal.EventDateTime{Date: "2026-03-11"},
			End:     &gcal.EventDateTime{Date: "2026-03-12"},
		},
		{Summary: "", Start: &gcal.EventDateTime{DateTime: "2026-03-10T10:00:00Z"}},
		{Summary: "No start"},
		{
			Summary: "Open ended",
			Start:   &gcal.EventDateTime{DateTime: "2026-03-10T11:00:00Z"},
		},
		nil,
	}

	got := ToCalendarEvents(items)

	assert.Equal(t, []domain.CalendarEvent{
		{Title: "Standup", StartTime: "2026-03-10T09:00:00+02:00", DurationMinutes: 15},
		{Title: "Holiday", StartTime: "2026-03-11T00:00:00Z", DurationMinutes: 1440},
		{Title: "Open ended", StartTime: "2026-03-10T11:00:00Z", DurationMinutes: 0},
	}, got)
}

func TestGoogleProvider_FetchEvents(t *testing.T) {
	var (
		gotPath  string
		gotQuery map[string]string
		gotAuth  string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{
			"timeMin":      r.URL.Query().Get("timeMin"),
			"timeMax":      r.URL.Query().Get("timeMax"),
			"singleEvents": r.URL.Query().Get("singleEvents"),
			"orderBy":      r.URL.Query().Get("orderBy"),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"summary": "Dentist",
					"start":   map[string]string{"dateTime": "2026-03-10T14:00:00Z"},
					"end":     map[string]string{"dateTime": "2026-03-10T14:45:00Z"},
				},
			},
		})
	}))
	defer srv.Close()

	store := newMockTokenStore()
	store.tokens[1] = db.CalendarToken{
		UserID:       1,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}

	logger := zerolog.Nop()
	p := NewGoogleProvider(store, Config{ClientID: "id", ClientSecret: "secret", Endpoint: srv.URL + "/"}, &logger)

	active, err := p.HasActiveCalendar(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, active)

	start := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)

	events, err := p.FetchEvents(context.Background(), 1, start, end)
	require.NoError(t, err)

	assert.Equal(t, "/calendars/primary/events", gotPath)
	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "2026-03-10T05:00:00Z", gotQuery["timeMin"])
	assert.Equal(t, "2026-03-10T11:00:00Z", gotQuery["timeMax"])
	assert.Equal(t, "true", gotQuery["singleEvents"])
	assert.Equal(t, "startTime", gotQuery["orderBy"])
	assert.Equal(t, []domain.CalendarEvent{
		{Title: "Dentist", StartTime: "2026-03-10T14:00:00Z", DurationMinutes: 45},
	}, events)
	assert.Empty(t, store.saved, "unchanged token must not be written back")
}

func TestGoogleProvider_MissingToken(t *testing.T) {
	logger := zerolog.Nop()
	p := NewGoogleProvider(newMockTokenStore(), Config{}, &logger)

	_, err := p.FetchEvents(context.Background(), 42, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPersistingSource_SavesRefreshedToken(t *testing.T) {
	store := newMockTokenStore()
	logger := zerolog.Nop()
	expiry := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	src := &persistingSource{
		base: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken:  "access-2",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}),
		last:   "access-1",
		userID: 7,
		store:  store,
		ctx:    context.Background(),
		logger: &logger,
	}

	for range 2 {
		tok, err := src.Token()
		require.NoError(t, err)
		assert.Equal(t, "access-2", tok.AccessToken)
	}

	require.Len(t, store.saved, 1)
	assert.Equal(t, db.CalendarToken{
		UserID:       7,
		AccessToken:  "access-2",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}, store.saved[0])
}
