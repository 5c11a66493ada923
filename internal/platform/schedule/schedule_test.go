package schedule

import (
	"errors"
	"testing"
	"time"
)

const testErrFmtParseHour = "ParseHour(%q) error = %v, want %v"

func TestParseHour(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr error
	}{
		{"08:00", 8, nil},
		{"8:00", 8, nil},
		{"23:00", 23, nil},
		{"0:30", 0, nil},
		{"7", 7, nil},
		{"24:00", 0, ErrHourOutOfRange},
		{"-1:00", 0, ErrHourOutOfRange},
		{"ab:00", 0, ErrInvalidHour},
		{"", 0, ErrTimeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHour(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf(testErrFmtParseHour, tt.input, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("ParseHour(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := Location("Asia/Nicosia")
	if err != nil {
		t.Fatalf("Location alias error: %v", err)
	}

	if loc.String() != "Europe/Nicosia" {
		t.Errorf("Location alias = %q, want Europe/Nicosia", loc.String())
	}

	if _, err := Location(""); !errors.Is(err, ErrEmptyTimezone) {
		t.Errorf("Location(\"\") error = %v, want %v", err, ErrEmptyTimezone)
	}

	if _, err := Location("Mars/Olympus"); err == nil {
		t.Error("expected error for unknown timezone")
	}

	if LocationOrUTC("Mars/Olympus") != time.UTC {
		t.Error("LocationOrUTC should fall back to UTC")
	}
}

func TestUTCOffset(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	winter := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		loc  *time.Location
		want string
	}{
		{"utc", time.UTC, "+00:00"},
		{"helsinki winter", helsinki, "+02:00"},
		{"kolkata half hour", kolkata, "+05:30"},
		{"new york winter", newYork, "-05:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UTCOffset(winter, tt.loc); got != tt.want {
				t.Errorf("UTCOffset() = %q, want %q", got, tt.want)
			}
		})
	}
}
