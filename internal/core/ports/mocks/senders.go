package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/core/ports"
)

// SentSMS is one recorded text message.
type SentSMS struct {
	To   string
	Body string
}

// SMSSender records texts instead of sending them.
type SMSSender struct {
	mu   sync.Mutex
	sent []SentSMS

	// Err makes every send fail when set.
	Err error

	// SendSMSFn allows overriding SendSMS behavior.
	SendSMSFn func(ctx context.Context, to, body string) (string, error)
}

// SendSMS implements ports.SMSSender.
func (m *SMSSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	if m.SendSMSFn != nil {
		return m.SendSMSFn(ctx, to, body)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}

	m.sent = append(m.sent, SentSMS{To: to, Body: body})

	return fmt.Sprintf("SM%04d", len(m.sent)), nil
}

// Sent returns a copy of the recorded texts.
func (m *SMSSender) Sent() []SentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]SentSMS(nil), m.sent...)
}

// VoiceCaller records calls instead of placing them.
type VoiceCaller struct {
	mu    sync.Mutex
	calls []ports.VoiceCall

	// Err makes every call fail when set.
	Err error
}

// PlaceCall implements ports.VoiceCaller.
func (m *VoiceCaller) PlaceCall(_ context.Context, call ports.VoiceCall) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}

	m.calls = append(m.calls, call)

	return fmt.Sprintf("CA%04d", len(m.calls)), nil
}

// Calls returns a copy of the recorded calls.
func (m *VoiceCaller) Calls() []ports.VoiceCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]ports.VoiceCall(nil), m.calls...)
}

// Alert is one recorded admin alert.
type Alert struct {
	Subject string
	Body    string
}

// AdminAlerter records operator alerts.
type AdminAlerter struct {
	mu     sync.Mutex
	alerts []Alert
}

// SendAlert implements ports.AdminAlerter.
func (m *AdminAlerter) SendAlert(_ context.Context, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alerts = append(m.alerts, Alert{Subject: subject, Body: body})

	return nil
}

// Alerts returns a copy of the recorded alerts.
func (m *AdminAlerter) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Alert(nil), m.alerts...)
}

// Calendar is an in-memory calendar provider.
type Calendar struct {
	mu     sync.Mutex
	active map[int64]bool
	events map[int64][]domain.CalendarEvent
	ranges [][2]time.Time

	// FetchEventsFn allows overriding FetchEvents behavior.
	FetchEventsFn func(ctx context.Context, userID int64, start, end time.Time) ([]domain.CalendarEvent, error)
}

// NewCalendar creates an empty calendar provider.
func NewCalendar() *Calendar {
	return &Calendar{
		active: make(map[int64]bool),
		events: make(map[int64][]domain.CalendarEvent),
	}
}

// SetEvents activates the user's calendar with the given events.
func (c *Calendar) SetEvents(userID int64, events ...domain.CalendarEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active[userID] = true
	c.events[userID] = events
}

// HasActiveCalendar implements ports.CalendarProvider.
func (c *Calendar) HasActiveCalendar(_ context.Context, userID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active[userID], nil
}

// FetchEvents implements ports.CalendarProvider.
func (c *Calendar) FetchEvents(ctx context.Context, userID int64, start, end time.Time) ([]domain.CalendarEvent, error) {
	if c.FetchEventsFn != nil {
		return c.FetchEventsFn(ctx, userID, start, end)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ranges = append(c.ranges, [2]time.Time{start, end})

	return c.events[userID], nil
}

// Ranges returns the requested fetch windows.
func (c *Calendar) Ranges() [][2]time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([][2]time.Time(nil), c.ranges...)
}

var (
	_ ports.SMSSender        = (*SMSSender)(nil)
	_ ports.VoiceCaller      = (*VoiceCaller)(nil)
	_ ports.AdminAlerter     = (*AdminAlerter)(nil)
	_ ports.CalendarProvider = (*Calendar)(nil)
)
