package timeutil

import (
	"testing"
	"time"
)

// TestWeekBounds verifies Monday/Sunday week bounds for every weekday,
// including the Sunday edge where the week started six days earlier.
func TestWeekBounds(t *testing.T) {
	tests := []struct {
		date      string
		wantStart string
		wantEnd   string
	}{
		{"2026-03-02", "2026-03-02", "2026-03-08"}, // Monday
		{"2026-03-04", "2026-03-02", "2026-03-08"}, // Wednesday
		{"2026-03-07", "2026-03-02", "2026-03-08"}, // Saturday
		{"2026-03-08", "2026-03-02", "2026-03-08"}, // Sunday
		{"2026-03-09", "2026-03-09", "2026-03-15"}, // next Monday
		{"2026-01-01", "2025-12-29", "2026-01-04"}, // year boundary
	}

	for _, tt := range tests {
		d, err := ParseDate(tt.date)
		if err != nil {
			t.Fatalf("ParseDate(%s): %v", tt.date, err)
		}
		if got := FormatDate(WeekStart(d)); got != tt.wantStart {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.date, got, tt.wantStart)
		}
		if got := FormatDate(WeekEnd(d)); got != tt.wantEnd {
			t.Errorf("WeekEnd(%s) = %s, want %s", tt.date, got, tt.wantEnd)
		}
	}
}

// TestParseDate verifies round-tripping and rejection of malformed input.
func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if FormatDate(d) != "2026-03-02" {
		t.Errorf("round trip = %s", FormatDate(d))
	}

	for _, bad := range []string{"", "03/02/2026", "2026-3-2", "2026-13-01", "yesterday"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) succeeded, want error", bad)
		}
	}
}

// TestToday verifies the result is midnight regardless of location.
func TestToday(t *testing.T) {
	for _, loc := range []*time.Location{time.UTC, time.FixedZone("east", 10*3600)} {
		d := Today(loc)
		if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 || d.Nanosecond() != 0 {
			t.Errorf("Today(%v) = %v, want midnight", loc, d)
		}
	}
}
