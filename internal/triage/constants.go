package triage

import "time"

// Outcomes recorded on processed events.
const (
	OutcomeDigest             = "digest"
	OutcomeCanceled           = "canceled"
	OutcomeError              = "error"
	OutcomeMuted              = "muted"
	OutcomeStale              = "stale"
	OutcomeRead               = "read"
	OutcomeReplied            = "replied"
	OutcomeNoBridge           = "no_bridge"
	OutcomeUnknownService     = "unknown_service"
	OutcomeUnsupported        = "unsupported"
	OutcomeNotBridged         = "not_bridged"
	OutcomeUnknownUser        = "unknown_user"
	OutcomeGated              = "gated"
	OutcomeNotMentioned       = "not_mentioned"
	OutcomeErrorText          = "error_text"
	OutcomeManagementIgnored  = "management_ignored"
	OutcomeBridgeDisconnected = "bridge_disconnected"
)

// Stage names.
const (
	StageConfirmation = "confirmation"
	StagePriority     = "priority"
	StageWaitingCheck = "waiting_check"
	StageCritical     = "critical"
)

// AssistantPromptMarker is the question the assistant posts into a chat when
// it offers to forward a time-sensitive message.
const AssistantPromptMarker = "Hi, I'm Lightfriend, your friend's AI assistant. This message looks time-sensitive—since they're not currently on their computer, would you like me to send them a notification about it? Reply \"yes\" or \"no.\""

const (
	maxDirectMembers = 3

	defaultStaleAfter        = 30 * time.Minute
	defaultShortWait         = 2 * time.Minute
	defaultLongWait          = 10 * time.Minute
	defaultActivityThreshold = 5 * time.Minute
	defaultTimelineLimit     = 100
	defaultCriticalCooldown  = 10 * time.Minute

	contentTypeCriticalFmt     = "%s_critical"
	contentTypePriorityFmt     = "%s_priority_%s"
	contentTypeWaitingCheckFmt = "%s_waiting_check_%s"
	classifierInputFmt         = "%s from %s: %s"

	priorityFirstMessageFmt     = "Hello, you have an important %s message from %s."
	waitingFallbackTextFmt      = "Waiting check matched in %s, but failed to get content"
	waitingFallbackFirstFmt     = "Hey, I found a match for one of your waiting checks in %s."
	criticalFallbackTextFmt     = "Critical %s message found, failed to get content, but you can check your %s to see it."
	criticalFallbackFirstFmt    = "Hey, I found some critical %s message."
	incomingCallTextFmt         = "You have an incoming %s call from %s"
	incomingCallFirstFmt        = "Hello, you have an incoming %s call from %s."
	confirmationFirstMessageFmt = "Hey, someone confirmed a time-sensitive %s message."

	callMarkerIncoming = "Incoming call"
	callMarkerMissed   = "Missed call"

	logKeyUserID     = "user_id"
	logKeyService    = "service"
	logKeyEventID    = "event_id"
	logKeyPipelineID = "pipeline_id"
	logKeyStage      = "stage"
	logKeyOutcome    = "outcome"
)
