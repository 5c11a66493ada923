package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

func TestHoursUntil(t *testing.T) {
	tests := []struct {
		cur, target, want int
	}{
		{7, 13, 6},
		{22, 8, 10},
		{8, 8, 0},
		{23, 0, 1},
		{0, 23, 23},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HoursUntil(tt.cur, tt.target), "HoursUntil(%d, %d)", tt.cur, tt.target)
	}
}

func TestHoursSince(t *testing.T) {
	tests := []struct {
		cur, prev, want int
	}{
		{7, 18, 13},
		{13, 7, 6},
		{0, 0, 0},
		{1, 23, 2},
		{23, 0, 23},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HoursSince(tt.cur, tt.prev), "HoursSince(%d, %d)", tt.cur, tt.prev)
	}
}

func TestSlot_Window(t *testing.T) {
	tests := []struct {
		name     string
		slot     string
		hour     int
		settings domain.DigestSettings
		next     int
		since    int
	}{
		{
			name:     "morning before day, no evening",
			slot:     SlotMorning,
			hour:     7,
			settings: domain.DigestSettings{Morning: "07:00", Day: "13:00"},
			next:     6,
			since:    7,
		},
		{
			name:     "morning falls through to evening",
			slot:     SlotMorning,
			hour:     7,
			settings: domain.DigestSettings{Morning: "07:00", Evening: "19:00"},
			next:     12,
			since:    12,
		},
		{
			name:     "morning alone runs to midnight",
			slot:     SlotMorning,
			hour:     9,
			settings: domain.DigestSettings{Morning: "09:00"},
			next:     15,
			since:    9,
		},
		{
			name:     "morning with unreadable day hour",
			slot:     SlotMorning,
			hour:     7,
			settings: domain.DigestSettings{Morning: "07:00", Day: "noon"},
			next:     5,
			since:    7,
		},
		{
			name:     "day between morning and evening",
			slot:     SlotDay,
			hour:     13,
			settings: domain.DigestSettings{Morning: "07:00", Day: "13:00", Evening: "20:00"},
			next:     7,
			since:    6,
		},
		{
			name:     "day alone",
			slot:     SlotDay,
			hour:     13,
			settings: domain.DigestSettings{Day: "13:00"},
			next:     11,
			since:    7,
		},
		{
			name:     "evening alone",
			slot:     SlotEvening,
			hour:     20,
			settings: domain.DigestSettings{Evening: "20:00"},
			next:     12,
			since:    8,
		},
		{
			name:     "evening with all slots",
			slot:     SlotEvening,
			hour:     21,
			settings: domain.DigestSettings{Morning: "6:00", Day: "14:00", Evening: "21:00"},
			next:     9,
			since:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := SlotByName(tt.slot)
			require.True(t, ok)

			next, since := slot.Window(tt.hour, tt.settings)
			assert.Equal(t, tt.next, next, "hours to next")
			assert.Equal(t, tt.since, since, "hours since previous")
		})
	}
}

func TestSlot_Copy(t *testing.T) {
	morning, _ := SlotByName(SlotMorning)
	day, _ := SlotByName(SlotDay)
	evening, _ := SlotByName(SlotEvening)

	assert.Equal(t, "morning_digest", morning.ContentType())
	assert.Equal(t, "Good morning! WHATSAPP: hi", morning.Greet("WHATSAPP: hi"))
	assert.Equal(t, "Hello! WHATSAPP: hi", day.Greet("WHATSAPP: hi"))
	assert.Equal(t, "Good evening! WHATSAPP: hi", evening.Greet("WHATSAPP: hi"))

	assert.Equal(t,
		"Good morning! Here's your morning digest covering the last 7 hours. Next digest in 6 hours.",
		morning.Fallback(7, 6))
	assert.Equal(t,
		"Hello! Here's your daily digest covering the last 6 hours. Next digest in 11 hours.",
		day.Fallback(6, 11))

	assert.Equal(t, "Hello! Want to hear your daily digest?", day.VoiceOpener)

	_, ok := SlotByName("night")
	assert.False(t, ok)
}
