package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
)

var (
	_ ports.UserStore           = (*Store)(nil)
	_ ports.BridgeStore         = (*Store)(nil)
	_ ports.RoomStore           = (*Store)(nil)
	_ ports.TimelineSource      = (*Store)(nil)
	_ ports.BridgeMessageSource = (*Store)(nil)
	_ ports.EventQueue          = (*Store)(nil)
	_ ports.WaitingCheckStore   = (*Store)(nil)
	_ ports.PrioritySenderStore = (*Store)(nil)
	_ ports.NotificationLog     = (*Store)(nil)
	_ ports.HistoryStore        = (*Store)(nil)
	_ ports.CreditStore         = (*Store)(nil)
	_ ports.EmailSource         = (*Store)(nil)
	_ ports.LockStore           = (*Store)(nil)
)

func TestStore_DeleteWaitingCheckOnce(t *testing.T) {
	s := NewStore()
	id := s.AddWaitingCheck(domain.WaitingCheck{UserID: 1, Content: "parcel"})

	removed, err := s.DeleteWaitingCheck(context.Background(), 1, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteWaitingCheck(context.Background(), 1, id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_ClaimPendingEvents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for _, id := range []string{"$a", "$b", "$c"} {
		_, err := s.SaveBridgeEvent(ctx, domain.BridgeEvent{EventID: id, UserID: 1, RoomID: "!r", Service: domain.ServiceWhatsApp}, true)
		require.NoError(t, err)
	}

	first, err := s.ClaimPendingEvents(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := s.ClaimPendingEvents(ctx, 5)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "$c", second[0].EventID)
}

func TestStore_HasRecentNotification(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		success bool
		window  time.Duration
		want    bool
	}{
		{name: "success inside window", success: true, window: 10 * time.Minute, want: true},
		{name: "success outside window", success: true, window: 4 * time.Minute, want: false},
		{name: "failure inside window", success: false, window: 10 * time.Minute, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Now = func() time.Time { return now }

			ctx := context.Background()
			require.NoError(t, s.LogNotification(ctx, domain.NotificationRecord{
				UserID: 1, ContentType: "whatsapp_critical", Success: tt.success, CreatedAt: now.Add(-5 * time.Minute),
			}))

			recent, err := s.HasRecentNotification(ctx, 1, "whatsapp_critical", tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, recent)
		})
	}
}
