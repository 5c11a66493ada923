package notify

import "time"

// Channels a notification can be routed to.
const (
	ChannelSMS  = "sms"
	ChannelCall = "call"
)

const (
	defaultCallFirstMessage = "Hello, I have a critical notification to tell you about"

	callFailureFmt = "Failed to initiate call: %v"
	smsFailureFmt  = "Failed to send SMS: %v"

	contentTypeCritical = "critical"
	suffixCall          = "_call"
	suffixSMS           = "_sms"

	smsMaxLength    = 157
	smsSenderMax    = 30
	smsPrefixFmt    = "%s from "
	smsSeparator    = ": "
	smsEllipsis     = "…"
	defaultHTTPWait = 15 * time.Second

	logKeyUserID      = "user_id"
	logKeyContentType = "content_type"
	logKeyChannel     = "channel"
	logKeyRef         = "ref"

	statusInsufficient = "insufficient_credits"

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	errBodyReadLimit  = 1024
	errStatusBodyFmt  = "%w: status %d, body: %s"
)
