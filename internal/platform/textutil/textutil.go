// Package textutil provides text helpers shared by the triage and digest code:
// case-insensitive matching, capitalization, rune-safe truncation and
// HTML-to-text conversion for formatted message bodies.
package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ellipsis is the single-rune truncation marker used in SMS copy.
const Ellipsis = "…"

var (
	folder = cases.Fold()
	titler = cases.Title(language.English, cases.NoLower)
)

// Fold returns the case-folded form of s for case-insensitive comparison.
func Fold(s string) string {
	return folder.String(s)
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// Capitalize upper-cases the first letter and leaves the rest untouched.
func Capitalize(s string) string {
	if s == "" {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)

	return titler.String(string(r)) + s[size:]
}

// TruncateRunes cuts s to at most max runes, appending Ellipsis when cut.
// The ellipsis is counted within max.
func TruncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	if max <= 0 {
		return ""
	}

	runes := []rune(s)

	return string(runes[:max-1]) + Ellipsis
}

// RemoveBridgeSuffix strips the "(WA)" and "(Telegram)" markers bridges append to room names.
func RemoveBridgeSuffix(name string) string {
	for _, suffix := range []string{"(WA)", "(Telegram)"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(name, suffix))
		}
	}

	return name
}
