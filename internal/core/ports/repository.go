// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// UserStore reads user preferences.
type UserStore interface {
	// GetUserSettings returns errors.ErrUserNotFound when the user has no row.
	GetUserSettings(ctx context.Context, userID int64) (*domain.UserSettings, error)
	ListDigestUsers(ctx context.Context) ([]domain.UserSettings, error)
}

// BridgeStore manages bridge connection state and the last-seen watermark.
type BridgeStore interface {
	// GetBridge returns errors.ErrBridgeNotFound when the user has no such bridge.
	GetBridge(ctx context.Context, userID int64, service domain.Service) (*domain.Bridge, error)
	ListBridges(ctx context.Context, userID int64) ([]domain.Bridge, error)
	UpdateBridgeLastSeen(ctx context.Context, userID int64, service domain.Service, seen time.Time) error
	DeleteBridge(ctx context.Context, userID int64, service domain.Service) error
}

// RoomStore exposes bridged room metadata.
type RoomStore interface {
	IsRoomMuted(ctx context.Context, userID int64, roomID string) (bool, error)
	UpsertRoom(ctx context.Context, room domain.BridgeRoom) error
}

// TimelineSource reads the mirrored room timeline.
type TimelineSource interface {
	// RecentRoomEvents returns up to limit events, newest first.
	RecentRoomEvents(ctx context.Context, userID int64, roomID string, limit int) ([]domain.BridgeEvent, error)
	// ReadReceipt returns nil when the user has no receipt in the room.
	ReadReceipt(ctx context.Context, userID int64, roomID string) (*domain.ReadReceipt, error)
}

// BridgeMessageSource reads unread bridged events for digests.
type BridgeMessageSource interface {
	// RecentUnreadEvents returns incoming events newer than since and newer than
	// the room's read receipt, from the most active non-muted rooms of the service.
	// Events are grouped by room, newest first within a room.
	RecentUnreadEvents(ctx context.Context, userID int64, service domain.Service, since time.Time) ([]domain.BridgeEvent, error)
}

// EventQueue feeds mirrored events into the triage worker.
type EventQueue interface {
	SaveBridgeEvent(ctx context.Context, ev domain.BridgeEvent, needsTriage bool) (bool, error)
	UpsertReadReceipt(ctx context.Context, userID int64, roomID string, receipt domain.ReadReceipt) error
	ClaimPendingEvents(ctx context.Context, limit int) ([]domain.BridgeEvent, error)
	MarkEventProcessed(ctx context.Context, eventID, outcome string) error
	ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error)
}

// WaitingCheckStore manages waiting checks.
type WaitingCheckStore interface {
	ListWaitingChecks(ctx context.Context, userID int64, serviceTypes ...string) ([]domain.WaitingCheck, error)
	CreateWaitingCheck(ctx context.Context, check domain.WaitingCheck) (int64, error)
	// DeleteWaitingCheck reports whether this call removed the row.
	DeleteWaitingCheck(ctx context.Context, userID, checkID int64) (bool, error)
}

// PrioritySenderStore reads priority senders.
type PrioritySenderStore interface {
	ListPrioritySenders(ctx context.Context, userID int64, service string) ([]domain.PrioritySender, error)
}

// NotificationLog records sends and answers cooldown lookups.
type NotificationLog interface {
	LogNotification(ctx context.Context, rec domain.NotificationRecord) error
	HasRecentNotification(ctx context.Context, userID int64, contentType string, window time.Duration) (bool, error)
}

// HistoryStore appends to the user's conversation history.
type HistoryStore interface {
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) error
}

// CreditStore gates and charges notifications.
type CreditStore interface {
	HasCredits(ctx context.Context, userID int64, amount float64) (bool, error)
	DeductCredits(ctx context.Context, userID int64, amount float64) error
}

// EmailSource reads mirrored inbox messages.
type EmailSource interface {
	HasEmailConnection(ctx context.Context, userID int64) (bool, error)
	RecentEmails(ctx context.Context, userID int64, limit int) ([]domain.Email, error)
	SaveEmail(ctx context.Context, email domain.Email) error
}

// CalendarProvider reads upcoming calendar events.
type CalendarProvider interface {
	HasActiveCalendar(ctx context.Context, userID int64) (bool, error)
	FetchEvents(ctx context.Context, userID int64, start, end time.Time) ([]domain.CalendarEvent, error)
}

// LockStore provides cross-instance advisory locks.
type LockStore interface {
	TryAcquireAdvisoryLock(ctx context.Context, lockID int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, lockID int64) error
}

// SMSSender delivers a text message and returns the provider message ID.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// VoiceCall describes one outbound notification call.
type VoiceCall struct {
	UserID         int64
	To             string
	FirstMessage   string
	Message        string
	ContentType    string
	Timezone       string
	TimezoneOffset string
}

// VoiceCaller places an outbound voice call and returns the call reference.
type VoiceCaller interface {
	PlaceCall(ctx context.Context, call VoiceCall) (string, error)
}

// AdminAlerter delivers operator alerts.
type AdminAlerter interface {
	SendAlert(ctx context.Context, subject, body string) error
}
