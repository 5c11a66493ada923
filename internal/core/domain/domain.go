// Package domain holds the value types shared by triage, notification and digest code.
package domain

import "time"

// Service identifies a message platform.
type Service string

const (
	ServiceWhatsApp Service = "whatsapp"
	ServiceTelegram Service = "telegram"
	ServiceSignal   Service = "signal"
	ServiceEmail    Service = "email"
)

// BridgeServices lists the Matrix-bridged platforms in digest order.
var BridgeServices = []Service{ServiceWhatsApp, ServiceTelegram, ServiceSignal}

// SenderPrefix is the localpart prefix bridge puppets carry, e.g. "whatsapp_".
func (s Service) SenderPrefix() string {
	return string(s) + "_"
}

// Notification modes for priority senders.
const (
	NotiModeAll   = "all"
	NotiModeFocus = "focus"
)

// Notification delivery types.
const (
	NotiTypeSMS  = "sms"
	NotiTypeCall = "call"
)

// Bridge statuses.
const (
	BridgeStatusConnecting   = "connecting"
	BridgeStatusConnected    = "connected"
	BridgeStatusDisconnected = "disconnected"
)

// ActionNotifyFamily restricts critical alerts to focus-mode priority senders.
const ActionNotifyFamily = "notify_family"

// WaitingCheckServiceMessaging scopes a waiting check to every chat bridge.
const WaitingCheckServiceMessaging = "messaging"

// Credit kinds charged per notification.
const (
	CreditNotiMsg  = "noti_msg"
	CreditNotiCall = "noti_call"
)

// Notification statuses written to the usage log.
const (
	StatusDelivered = "delivered"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// History roles.
const (
	RoleAssistant = "assistant"
)

// WaitingCheck is a standing "tell me when X happens" condition.
type WaitingCheck struct {
	ID          int64
	UserID      int64
	Content     string
	ServiceType string
	NotiType    string
}

// PrioritySender is a contact whose messages notify without classification.
type PrioritySender struct {
	ID          int64
	UserID      int64
	Sender      string
	ServiceType string
	NotiType    string
	NotiMode    string
}

// Bridge is the connection state of one bridged platform for a user.
type Bridge struct {
	ID             int64
	UserID         int64
	BridgeType     string
	Status         string
	RoomID         string
	LastSeenOnline *time.Time
	CreatedAt      time.Time
}

// Connected reports whether the bridge is usable.
func (b Bridge) Connected() bool {
	return b.Status == BridgeStatusConnected
}

// DigestSettings holds per-slot digest hours as "HH:MM"; empty disables a slot.
type DigestSettings struct {
	Morning string
	Day     string
	Evening string
}

// AnyEnabled reports whether at least one slot is configured.
func (d DigestSettings) AnyEnabled() bool {
	return d.Morning != "" || d.Day != "" || d.Evening != ""
}

// UserSettings is the slice of user preferences the engine reads.
type UserSettings struct {
	UserID                  int64
	PhoneNumber             string
	MatrixUserID            string
	Timezone                string
	NotificationType        string
	CriticalEnabled         string
	ActionOnCriticalMessage string
	CallNotify              bool
	ProactiveAgentOn        bool
	SubscriptionActive      bool
	Digest                  DigestSettings
}

// BridgeEvent is one mirrored Matrix timeline event.
type BridgeEvent struct {
	EventID           string
	UserID            int64
	RoomID            string
	RoomName          string
	Service           Service
	Sender            string
	SenderDisplayName string
	IsOwn             bool
	MsgType           string
	Body              string
	FormattedBody     string
	Timestamp         time.Time
	MemberCount       int
	MentionsUser      bool
	IsManagementRoom  bool
}

// BridgeMessage is a normalized incoming chat message.
type BridgeMessage struct {
	EventID     string
	UserID      int64
	RoomID      string
	Service     Service
	ChatName    string
	Sender      string
	SenderName  string
	Content     string
	Timestamp   time.Time
	MemberCount int
	IsMention   bool
}

// BridgeRoom is a bridged room with its activity and mute state.
type BridgeRoom struct {
	UserID       int64
	RoomID       string
	DisplayName  string
	Service      Service
	Muted        bool
	LastActivity time.Time
}

// ReadReceipt marks the latest event the user has read in a room.
type ReadReceipt struct {
	EventID   string
	Timestamp time.Time
}

// MessageInfo is the unified digest input row.
type MessageInfo struct {
	Sender    string
	Content   string
	Timestamp string
	Platform  string

	// SortTime orders rows; it is not rendered.
	SortTime time.Time
}

// CalendarEvent is an upcoming calendar entry.
type CalendarEvent struct {
	Title           string
	StartTime       string
	DurationMinutes int
}

// Email is an inbox message mirrored from IMAP.
type Email struct {
	UserID    int64
	MessageID string
	From      string
	Subject   string
	Snippet   string
	Date      time.Time
}

// Notification is one outbound alert request.
type Notification struct {
	UserID       int64
	Text         string
	ContentType  string
	FirstMessage string
}

// NotificationRecord is one row of the notification usage log.
type NotificationRecord struct {
	UserID      int64
	ExternalRef string
	ContentType string
	Channel     string
	Success     bool
	Status      string
	Reason      string
	CreatedAt   time.Time
}

// HistoryEntry is one message stored in the user's conversation history.
type HistoryEntry struct {
	UserID    int64
	Role      string
	Content   string
	CreatedAt time.Time
}
