package db

import (
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "valid ascii", in: "hello", want: "hello"},
		{name: "valid unicode", in: "привет 👋", want: "привет 👋"},
		{name: "invalid byte dropped", in: "ab\xffcd", want: "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeUTF8(tt.in); got != tt.want {
				t.Errorf("SanitizeUTF8(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToText(t *testing.T) {
	if got := toText(""); got.Valid {
		t.Errorf("toText(\"\").Valid = true, want false")
	}

	if got := toText("sms"); !got.Valid || got.String != "sms" {
		t.Errorf("toText(\"sms\") = %+v, want valid sms", got)
	}

	if got := fromText(pgtype.Text{}); got != "" {
		t.Errorf("fromText(invalid) = %q, want empty", got)
	}
}

func TestFromUnixInt8(t *testing.T) {
	if got := fromUnixInt8(pgtype.Int8{}); got != nil {
		t.Fatalf("fromUnixInt8(null) = %v, want nil", got)
	}

	got := fromUnixInt8(pgtype.Int8{Int64: 1700000000, Valid: true})
	if got == nil {
		t.Fatal("fromUnixInt8(valid) = nil")
	}

	if !got.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("fromUnixInt8 = %v, want %v", got, time.Unix(1700000000, 0))
	}
}

func TestTimestamptzRoundTrip(t *testing.T) {
	if toTimestamptz(time.Time{}).Valid {
		t.Error("zero time should be NULL")
	}

	if !fromTimestamptz(pgtype.Timestamptz{}).IsZero() {
		t.Error("NULL timestamptz should map to zero time")
	}
}

func TestSafeIntToInt32(t *testing.T) {
	if got := safeIntToInt32(math.MaxInt32 + 1); got != math.MaxInt32 {
		t.Errorf("safeIntToInt32(overflow) = %d", got)
	}

	if got := safeIntToInt32(math.MinInt32 - 1); got != math.MinInt32 {
		t.Errorf("safeIntToInt32(underflow) = %d", got)
	}

	if got := safeIntToInt32(42); got != 42 {
		t.Errorf("safeIntToInt32(42) = %d", got)
	}
}

func TestDefaultPoolOptions(t *testing.T) {
	opts := DefaultPoolOptions()

	if opts.MaxConns != defaultMaxConns || opts.MinConns != defaultMinConns {
		t.Errorf("DefaultPoolOptions conns = %d/%d", opts.MaxConns, opts.MinConns)
	}
}

func TestPoolOptionsWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   PoolOptions
		want PoolOptions
	}{
		{name: "zero value", in: PoolOptions{}, want: DefaultPoolOptions()},
		{
			name: "explicit conns kept",
			in:   PoolOptions{MaxConns: 30, MinConns: 4},
			want: PoolOptions{
				MaxConns:          30,
				MinConns:          4,
				MaxConnIdleTime:   defaultMaxConnIdleTime,
				MaxConnLifetime:   defaultMaxConnLifetime,
				HealthCheckPeriod: defaultHealthCheckPeriod,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUsageDay(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 01:30 in Helsinki is still the previous day in UTC.
	got := usageDay(time.Date(2026, 3, 10, 1, 30, 0, 0, helsinki))
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("usageDay = %v, want %v", got, want)
	}
}

func TestReleaseUnheldLock(t *testing.T) {
	d := &DB{}

	if err := d.ReleaseAdvisoryLock(t.Context(), 42); err != nil {
		t.Errorf("ReleaseAdvisoryLock(unheld) error = %v", err)
	}
}
