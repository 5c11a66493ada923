package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
	"github.com/lueurxax/proactive-notifier/internal/core/llm"
	"github.com/lueurxax/proactive-notifier/internal/core/ports/mocks"
	"github.com/lueurxax/proactive-notifier/internal/notify"
)

const (
	testUserID   = int64(1)
	testMomRoom  = "!mom:hs"
	testWASender = "@whatsapp_358401:hs"
)

// 07:00 in Helsinki (UTC+2 before the March DST switch).
var helsinkiMorning = time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)

type fixture struct {
	store    *mocks.Store
	llm      *llm.Mock
	sms      *mocks.SMSSender
	calendar *mocks.Calendar
	alerts   *mocks.AdminAlerter
	now      time.Time

	mu       sync.Mutex
	requests []string

	scheduler *Scheduler
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		store:    mocks.NewStore(),
		llm:      llm.NewMock(),
		sms:      &mocks.SMSSender{},
		calendar: mocks.NewCalendar(),
		alerts:   &mocks.AdminAlerter{},
		now:      now,
	}

	f.store.Now = f.clock
	f.store.PutUser(domain.UserSettings{
		UserID:             testUserID,
		PhoneNumber:        "+358401111111",
		Timezone:           "Europe/Helsinki",
		NotificationType:   domain.NotiTypeSMS,
		ProactiveAgentOn:   true,
		SubscriptionActive: true,
		Digest:             domain.DigestSettings{Morning: "07:00", Day: "13:00"},
	})
	f.store.SetCredits(testUserID, 10)

	f.llm.ComposeDigestFn = func(_ context.Context, request string) (string, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.requests = append(f.requests, request)

		return "WHATSAPP: Mom asked about dinner", nil
	}

	logger := zerolog.Nop()

	dispatcher := notify.NewDispatcher(notify.Deps{
		Users:   f.store,
		Credits: f.store,
		Log:     f.store,
		History: f.store,
		SMS:     f.sms,
		Costs:   notify.Costs{Msg: 0.075, Call: 0.15},
		Now:     f.clock,
	}, &logger)

	f.scheduler = New(Deps{
		Users:    f.store,
		Bridges:  f.store,
		Messages: f.store,
		Emails:   f.store,
		Calendar: f.calendar,
		Senders:  f.store,
		Locks:    f.store,
		Alerts:   f.alerts,
		Notifier: dispatcher,
		Composer: NewComposer(f.llm, &logger),
		Now:      f.clock,
	}, Config{}, &logger)

	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requests...)
}

func (f *fixture) connectWhatsApp() {
	f.store.PutBridge(domain.Bridge{UserID: testUserID, BridgeType: "whatsapp", Status: domain.BridgeStatusConnected})
}

func (f *fixture) addChat(id, body string, at time.Time) {
	f.store.AddEvent(domain.BridgeEvent{
		EventID:     id,
		UserID:      testUserID,
		RoomID:      testMomRoom,
		RoomName:    "Mom (WA)",
		Service:     domain.ServiceWhatsApp,
		Sender:      testWASender,
		MsgType:     "m.text",
		Body:        body,
		Timestamp:   at,
		MemberCount: 2,
	})
}

func (f *fixture) user(t *testing.T) domain.UserSettings {
	t.Helper()

	u, err := f.store.GetUserSettings(context.Background(), testUserID)
	require.NoError(t, err)

	return *u
}

func morning() Slot {
	s, _ := SlotByName(SlotMorning)
	return s
}

func TestCheckSlot_HelsinkiMorning(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.connectWhatsApp()
	f.store.AddPrioritySender(domain.PrioritySender{UserID: testUserID, Sender: "Mom", ServiceType: "whatsapp", NotiMode: domain.NotiModeFocus})
	f.addChat("$1", "dinner tonight?", helsinkiMorning.Add(-30*time.Minute))
	f.calendar.SetEvents(testUserID, domain.CalendarEvent{Title: "Dentist", StartTime: "2026-03-10T09:00:00Z", DurationMinutes: 30})

	status, err := f.scheduler.CheckSlot(context.Background(), f.user(t), morning())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, status)

	sent := f.sms.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Good morning! WHATSAPP: Mom asked about dinner", sent[0].Body)

	recs := f.store.Notifications()
	require.Len(t, recs, 1)
	assert.Equal(t, "morning_digest", recs[0].ContentType)

	requests := f.Requests()
	require.Len(t, requests, 1)
	assert.True(t, strings.HasPrefix(requests[0], "Create a digest covering the last 7 hours."))
	assert.Contains(t, requests[0], "- [WHATSAPP] Mom on 2026-03-10 06:30:00: dinner tonight? [PRIORITY]")
	assert.Contains(t, requests[0], "- Dentist at 2026-03-10T09:00:00Z lasting 30 minutes")

	ranges := f.calendar.Ranges()
	require.Len(t, ranges, 1)
	assert.True(t, ranges[0][0].Equal(helsinkiMorning))
	assert.True(t, ranges[0][1].Equal(helsinkiMorning.Add(6*time.Hour)))
}

func TestCheckSlot_HourExactness(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"one hour early", helsinkiMorning.Add(-time.Hour), StatusNotDue},
		{"on the hour", helsinkiMorning, StatusSent},
		{"late in the hour", helsinkiMorning.Add(59 * time.Minute), StatusSent},
		{"one hour late", helsinkiMorning.Add(time.Hour), StatusNotDue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now)
			f.connectWhatsApp()
			f.addChat("$1", "are you up?", helsinkiMorning.Add(-2*time.Hour))

			status, err := f.scheduler.CheckSlot(context.Background(), f.user(t), morning())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)

			if tt.want == StatusSent {
				assert.Len(t, f.sms.Sent(), 1)
			} else {
				assert.Empty(t, f.sms.Sent())
				assert.Empty(t, f.Requests())
			}
		})
	}
}

func TestCheckSlot_EmptySkipsSend(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.connectWhatsApp()

	// Older than the window.
	f.addChat("$old", "yesterday's news", helsinkiMorning.Add(-8*time.Hour))

	status, err := f.scheduler.CheckSlot(context.Background(), f.user(t), morning())
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, status)
	assert.Empty(t, f.sms.Sent())
	assert.Equal(t, 0, f.llm.Calls(llm.TaskDigest))
}

func TestCheckSlot_Guards(t *testing.T) {
	tests := []struct {
		name    string
		digest  domain.DigestSettings
		tz      string
		want    string
		wantErr error
	}{
		{"slot disabled", domain.DigestSettings{Day: "13:00"}, "Europe/Helsinki", StatusDisabled, nil},
		{"no timezone", domain.DigestSettings{Morning: "07:00"}, "", StatusDisabled, nil},
		{"hour out of range", domain.DigestSettings{Morning: "25:00"}, "Europe/Helsinki", StatusInvalid, apperrors.ErrInvalidDigestHour},
		{"malformed hour", domain.DigestSettings{Morning: "seven"}, "Europe/Helsinki", StatusInvalid, apperrors.ErrInvalidDigestHour},
		{"unknown timezone", domain.DigestSettings{Morning: "07:00"}, "Mars/Olympus", StatusInvalid, apperrors.ErrInvalidTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, helsinkiMorning)
			user := f.user(t)
			user.Digest, user.Timezone = tt.digest, tt.tz

			status, err := f.scheduler.CheckSlot(context.Background(), user, morning())
			assert.Equal(t, tt.want, status)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.Empty(t, f.sms.Sent())
		})
	}
}

func TestCheckSlot_ComposerFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "call failure uses slot template",
			err:  fmt.Errorf("%w: upstream 500", apperrors.ErrLLMCall),
			want: "Good morning! Here's your morning digest covering the last 7 hours. Next digest in 6 hours.",
		},
		{
			name: "parse failure keeps placeholder",
			err:  fmt.Errorf("%w: bad json", apperrors.ErrLLMParse),
			want: "Good morning! Failed to generate digest(parse error).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, helsinkiMorning)
			f.connectWhatsApp()
			f.addChat("$1", "call me", helsinkiMorning.Add(-time.Hour))
			f.llm.ComposeDigestFn = func(context.Context, string) (string, error) { return "", tt.err }

			status, err := f.scheduler.CheckSlot(context.Background(), f.user(t), morning())
			require.NoError(t, err)
			assert.Equal(t, StatusSent, status)

			sent := f.sms.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.want, sent[0].Body)
		})
	}
}

func TestCheckSlot_BridgeCheckFailureAlerts(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.store.GetBridgeFn = func(context.Context, int64, domain.Service) (*domain.Bridge, error) {
		return nil, errors.New("connection refused")
	}
	f.store.SetEmailConnected(testUserID, true)
	require.NoError(t, f.store.SaveEmail(context.Background(), domain.Email{
		UserID: testUserID, MessageID: "m1", Snippet: "statement ready", Date: helsinkiMorning.Add(-time.Hour),
	}))

	status, err := f.scheduler.CheckSlot(context.Background(), f.user(t), morning())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, status)

	alerts := f.alerts.Alerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, "Bridge Check Failed - Whatsapp", alerts[0].Subject)
	assert.Contains(t, alerts[0].Body, "User ID: 1")
	assert.Contains(t, alerts[0].Body, "Error: connection refused")

	requests := f.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0], "- [EMAIL] Unknown sender on 2026-03-10 06:00:00: statement ready")
}

func TestCheckSlot_EmailWindow(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.store.SetEmailConnected(testUserID, true)

	ctx := context.Background()
	emails := []domain.Email{
		{UserID: testUserID, MessageID: "old", From: "Old", Snippet: "stale", Date: helsinkiMorning.Add(-8 * time.Hour)},
		{UserID: testUserID, MessageID: "undated", From: "Nobody"},
		{UserID: testUserID, MessageID: "new", From: "Bank", Date: helsinkiMorning.Add(-time.Hour)},
	}

	for _, e := range emails {
		require.NoError(t, f.store.SaveEmail(ctx, e))
	}

	_, err := f.scheduler.CheckSlot(ctx, f.user(t), morning())
	require.NoError(t, err)

	requests := f.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0], "- [EMAIL] Bank on 2026-03-10 06:00:00: No content")
	assert.NotContains(t, requests[0], "Old")
	assert.NotContains(t, requests[0], "Nobody")
}

func TestCheckSlot_BridgeMessageFilters(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.connectWhatsApp()

	for i := 0; i < 7; i++ {
		f.addChat(fmt.Sprintf("$m%d", i), fmt.Sprintf("message %d", i), helsinkiMorning.Add(-time.Duration(60-i)*time.Minute))
	}

	f.addChat("$err", "* Failed to bridge media", helsinkiMorning.Add(-time.Minute))
	f.store.AddEvent(domain.BridgeEvent{
		EventID: "$own", UserID: testUserID, RoomID: testMomRoom, RoomName: "Mom (WA)", Service: domain.ServiceWhatsApp,
		Sender: "@me:hs", IsOwn: true, MsgType: "m.text", Body: "my reply", Timestamp: helsinkiMorning.Add(-2 * time.Minute),
	})

	_, err := f.scheduler.CheckSlot(context.Background(), f.user(t), morning())
	require.NoError(t, err)

	requests := f.Requests()
	require.Len(t, requests, 1)

	assert.Equal(t, bridgeRoomMessages, strings.Count(requests[0], "- [WHATSAPP] Mom on"))
	assert.Contains(t, requests[0], "message 6")
	assert.NotContains(t, requests[0], "message 1\n")
	assert.NotContains(t, requests[0], "Failed to bridge media")
	assert.NotContains(t, requests[0], "my reply")
}

func TestCheckSlot_MutedRoomExcluded(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.connectWhatsApp()
	f.addChat("$1", "hello", helsinkiMorning.Add(-time.Hour))
	require.NoError(t, f.store.UpsertRoom(context.Background(), domain.BridgeRoom{
		UserID: testUserID, RoomID: testMomRoom, Service: domain.ServiceWhatsApp, Muted: true,
	}))

	status, err := f.scheduler.CheckSlot(context.Background(), f.user(t), morning())
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, status)
}

func TestRunOnce_LeaderLock(t *testing.T) {
	ctx := context.Background()

	t.Run("lock held elsewhere", func(t *testing.T) {
		f := newFixture(t, helsinkiMorning)
		f.scheduler.cfg.LeaderElection = true
		f.connectWhatsApp()
		f.addChat("$1", "hello", helsinkiMorning.Add(-time.Hour))

		acquired, err := f.store.TryAcquireAdvisoryLock(ctx, DefaultLockID)
		require.NoError(t, err)
		require.True(t, acquired)

		require.NoError(t, f.scheduler.RunOnce(ctx))
		assert.Empty(t, f.sms.Sent())
	})

	t.Run("lock acquired and released", func(t *testing.T) {
		f := newFixture(t, helsinkiMorning)
		f.scheduler.cfg.LeaderElection = true
		f.connectWhatsApp()
		f.addChat("$1", "hello", helsinkiMorning.Add(-time.Hour))

		require.NoError(t, f.scheduler.RunOnce(ctx))
		assert.Len(t, f.sms.Sent(), 1)

		acquired, err := f.store.TryAcquireAdvisoryLock(ctx, DefaultLockID)
		require.NoError(t, err)
		assert.True(t, acquired)
	})
}

func TestRunOnce_AllUsersAndSlots(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.connectWhatsApp()
	f.addChat("$1", "hello", helsinkiMorning.Add(-time.Hour))

	f.store.PutUser(domain.UserSettings{
		UserID: 2, PhoneNumber: "+4915111111", Timezone: "UTC", NotificationType: domain.NotiTypeSMS,
		Digest: domain.DigestSettings{Evening: "05:00"},
	})
	f.store.SetCredits(2, 10)
	f.store.PutBridge(domain.Bridge{UserID: 2, BridgeType: "whatsapp", Status: domain.BridgeStatusConnected})
	f.store.AddEvent(domain.BridgeEvent{
		EventID: "$u2", UserID: 2, RoomID: "!bob:hs", RoomName: "Bob (WA)", Service: domain.ServiceWhatsApp,
		Sender: "@whatsapp_4915:hs", MsgType: "m.text", Body: "ping", Timestamp: helsinkiMorning.Add(-time.Hour),
	})

	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	var types []string
	for _, rec := range f.store.Notifications() {
		types = append(types, fmt.Sprintf("%d:%s", rec.UserID, rec.ContentType))
	}

	assert.ElementsMatch(t, []string{"1:morning_digest", "2:evening_digest"}, types)
}

func TestRun_InvalidCron(t *testing.T) {
	f := newFixture(t, helsinkiMorning)
	f.scheduler.cfg.Cron = "not a cron"

	err := f.scheduler.Run(context.Background())
	require.Error(t, err)
}
