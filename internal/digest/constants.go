package digest

import "time"

// Slot names, also used as the content type prefix.
const (
	SlotMorning = "morning"
	SlotDay     = "day"
	SlotEvening = "evening"
)

// Slot evaluation statuses.
const (
	StatusSent     = "sent"
	StatusEmpty    = "empty"
	StatusDisabled = "disabled"
	StatusNotDue   = "not_due"
	StatusInvalid  = "invalid"
	StatusError    = "error"
)

const (
	hoursPerDay = 24

	// DefaultLockID is the advisory lock that keeps digest ticks on one instance.
	DefaultLockID = int64(0x6e6f7469)

	defaultConcurrency = 8
	defaultCron        = "0 * * * *"
	stopTimeout        = 10 * time.Second

	emailLimit         = 50
	bridgeRoomMessages = 5

	platformEmail = "email"

	contentTypeFmt = "%s_digest"
	timestampFmt   = "2006-01-02 15:04:05"
	alertTimeFmt   = "2006-01-02 15:04:05 UTC"

	defaultEmailSender  = "Unknown sender"
	defaultEmailContent = "No content"
	noTimestamp         = "No Timestamp"

	alertSubjectFmt = "Bridge Check Failed - %s"
	alertBodyFmt    = "Failed to check %s bridge connection during digest generation.\n\nUser ID: %d\nError: %v\nTimestamp: %s"

	composeFailed      = "Failed to generate digest."
	composeParseFailed = "Failed to generate digest(parse error)."

	messageLineFmt   = "- [%s] %s on %s: %s%s"
	eventLineFmt     = "- %s at %s lasting %d minutes"
	priorityTag      = " [PRIORITY]"
	requestFmt       = "Create a digest covering the last %d hours.\n\nMessages:\n%s"
	requestEventsFmt = "\n\nUpcoming calendar events:\n%s"

	logKeyUserID        = "user_id"
	logKeySlot          = "slot"
	logKeyPlatform      = "platform"
	logKeyCorrelationID = "correlation_id"
)
