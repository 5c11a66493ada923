// Package bridge turns mirrored Matrix bridge events into normalized chat
// messages and exposes the HTTP ingest API the Matrix sync loop writes to.
package bridge

import (
	"strings"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/platform/textutil"
)

// Matrix message types.
const (
	MsgTypeText     = "m.text"
	MsgTypeNotice   = "m.notice"
	MsgTypeEmote    = "m.emote"
	MsgTypeImage    = "m.image"
	MsgTypeVideo    = "m.video"
	MsgTypeFile     = "m.file"
	MsgTypeAudio    = "m.audio"
	MsgTypeLocation = "m.location"
)

const (
	locationPlaceholder = "📍 LOCATION"
	attachmentFmt       = "📎 "
	botSuffix           = "bot"
)

var mediaLabels = map[string]string{
	MsgTypeImage: "IMAGE",
	MsgTypeVideo: "VIDEO",
	MsgTypeFile:  "FILE",
	MsgTypeAudio: "AUDIO",
}

var roomMarkers = []struct {
	marker  string
	service domain.Service
}{
	{"(wa)", domain.ServiceWhatsApp},
	{"(tg)", domain.ServiceTelegram},
	{"signal", domain.ServiceSignal},
}

var errorTextMarkers = []string{
	"Failed to bridge media",
	"media no longer available",
	"Decrypting message from WhatsApp failed",
}

const errorTextPrefix = "* Failed to"

var disconnectPatterns = []string{
	"disconnected",
	"connection lost",
	"logged out",
	"authentication failed",
	"login failed",
	"error",
	"failed",
	"timeout",
	"invalid",
}

// Localpart returns the localpart of a Matrix user ID: "@whatsapp_1:hs" -> "whatsapp_1".
func Localpart(userID string) string {
	s := strings.TrimPrefix(userID, "@")
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}

	return s
}

// InferService guesses the bridged platform from the room name or the sender.
func InferService(roomName, sender string) (domain.Service, bool) {
	room := strings.ToLower(roomName)
	local := strings.ToLower(Localpart(sender))

	for _, m := range roomMarkers {
		if strings.Contains(room, m.marker) || strings.HasPrefix(local, string(m.service)) {
			return m.service, true
		}
	}

	return "", false
}

// HasBridgePrefix reports whether sender is a bridged puppet of service.
func HasBridgePrefix(service domain.Service, sender string) bool {
	return strings.HasPrefix(Localpart(sender), service.SenderPrefix())
}

// SenderName is the sender localpart without the bridge prefix.
func SenderName(service domain.Service, sender string) string {
	return strings.TrimPrefix(Localpart(sender), service.SenderPrefix())
}

// IsBridgeBot reports whether sender is the bridge bot of service. configured
// is the full bot user ID when known; otherwise the "{service}bot" localpart
// convention is used.
func IsBridgeBot(service domain.Service, sender, configured string) bool {
	if configured != "" {
		return sender == configured
	}

	return Localpart(sender) == string(service)+botSuffix
}

// MessageContent renders an event body for matching and SMS text. It returns
// false for message types that carry nothing worth reading.
func MessageContent(msgType, body, formattedBody string) (string, bool) {
	switch msgType {
	case MsgTypeText, MsgTypeNotice, MsgTypeEmote:
		if strings.TrimSpace(body) == "" && formattedBody != "" {
			return textutil.HTMLToText(formattedBody), true
		}

		return body, true
	case MsgTypeImage, MsgTypeVideo, MsgTypeFile, MsgTypeAudio:
		if body != "" {
			return body, true
		}

		return attachmentFmt + mediaLabels[msgType], true
	case MsgTypeLocation:
		return locationPlaceholder, true
	default:
		return "", false
	}
}

// IsErrorText reports bridge failure notices that should never be triaged.
func IsErrorText(body string) bool {
	if strings.HasPrefix(body, errorTextPrefix) {
		return true
	}

	for _, m := range errorTextMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}

	return false
}

// IsDisconnectNotice reports whether a management-room notice signals a lost login.
func IsDisconnectNotice(body string) bool {
	lower := strings.ToLower(body)

	for _, p := range disconnectPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}

	return false
}

// IsConfirmation reports a bare "yes" reply.
func IsConfirmation(content string) bool {
	s := strings.ToLower(strings.TrimSpace(content))

	return s == "yes" || s == "y"
}

// Normalize converts a mirrored event into a chat message. It returns false
// when the service is unknown or the message type carries no content.
func Normalize(ev domain.BridgeEvent) (domain.BridgeMessage, bool) {
	service := ev.Service
	if service == "" {
		var ok bool

		service, ok = InferService(ev.RoomName, ev.Sender)
		if !ok {
			return domain.BridgeMessage{}, false
		}
	}

	content, ok := MessageContent(ev.MsgType, ev.Body, ev.FormattedBody)
	if !ok {
		return domain.BridgeMessage{}, false
	}

	return domain.BridgeMessage{
		EventID:     ev.EventID,
		UserID:      ev.UserID,
		RoomID:      ev.RoomID,
		Service:     service,
		ChatName:    textutil.RemoveBridgeSuffix(ev.RoomName),
		Sender:      ev.Sender,
		SenderName:  SenderName(service, ev.Sender),
		Content:     content,
		Timestamp:   ev.Timestamp,
		MemberCount: ev.MemberCount,
		IsMention:   ev.MentionsUser,
	}, true
}
