package notify

import (
	"fmt"
	"unicode/utf8"

	"github.com/lueurxax/proactive-notifier/internal/platform/textutil"
)

// TrimForSMS renders "{Service} from {sender}: {content}" within the SMS budget.
// The sender is capped at 30 characters; the content gets whatever remains.
// Both are cut on rune boundaries and marked with an ellipsis when shortened.
func TrimForSMS(service, sender, content string) string {
	prefix := fmt.Sprintf(smsPrefixFmt, textutil.Capitalize(service))
	remaining := smsMaxLength - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(smsSeparator)

	sender = cutRunes(sender, smsSenderMax)
	remaining -= utf8.RuneCountInString(sender)

	if remaining < 0 {
		remaining = 0
	}

	content = cutRunes(content, remaining)

	return prefix + sender + smsSeparator + content
}

// cutRunes keeps the first n runes and appends an ellipsis when anything was dropped.
func cutRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)

	return string(runes[:n]) + smsEllipsis
}
