// Package schedule parses digest slot hours and resolves user timezones.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"
)

// Time conversion constants.
const (
	minutesPerHour   = 60
	secondsPerMinute = 60
	maxHour          = 23
)

// Error messages.
const (
	errFmtInvalidTimezone = "invalid timezone: %w"
)

// Static errors for schedule validation.
var (
	ErrTimeFormat     = errors.New("time must be HH:MM")
	ErrInvalidHour    = errors.New("invalid hour")
	ErrHourOutOfRange = errors.New("hour out of range")
	ErrEmptyTimezone  = errors.New("timezone not set")
)

var timezoneAliases = map[string]string{
	"Asia/Nicosia": "Europe/Nicosia",
}

// NormalizeTimezone maps known aliases to canonical IANA names.
func NormalizeTimezone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if canonical, ok := timezoneAliases[value]; ok {
		return canonical
	}

	return value
}

// Location resolves a user timezone. An empty name is an error: digest
// slots are evaluated in local time and cannot fall back silently.
func Location(tz string) (*time.Location, error) {
	name := NormalizeTimezone(tz)
	if name == "" {
		return nil, ErrEmptyTimezone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf(errFmtInvalidTimezone, err)
	}

	return loc, nil
}

// LocationOrUTC resolves tz, falling back to UTC when empty or unknown.
func LocationOrUTC(tz string) *time.Location {
	loc, err := Location(tz)
	if err != nil {
		return time.UTC
	}

	return loc
}

// ParseHour extracts the hour from a slot setting such as "08:00" or "8".
// Only the part before the first colon is read.
func ParseHour(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, ErrTimeFormat
	}

	hourPart, _, _ := strings.Cut(value, ":")

	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return 0, ErrInvalidHour
	}

	if hour < 0 || hour > maxHour {
		return 0, ErrHourOutOfRange
	}

	return hour, nil
}

// UTCOffset formats the offset of t in loc as "+02:00" / "-05:30".
func UTCOffset(t time.Time, loc *time.Location) string {
	_, offset := t.In(loc).Zone()

	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}

	minutes := offset / secondsPerMinute

	return fmt.Sprintf("%s%02d:%02d", sign, minutes/minutesPerHour, minutes%minutesPerHour)
}
