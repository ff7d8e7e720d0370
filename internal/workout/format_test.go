package workout

import (
	"testing"
	"time"
)

// TestFormatElapsed verifies the stopwatch display format.
func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00.00"},
		{1234 * time.Millisecond, "00:01.23"},
		{61*time.Second + 990*time.Millisecond, "01:01.99"},
		{75 * time.Minute, "75:00.00"},
		{-time.Second, "00:00.00"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.in); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestFormatRest verifies the rest countdown display format.
func TestFormatRest(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{30, "00:30"},
		{60, "01:00"},
		{125, "02:05"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatRest(tt.in); got != tt.want {
			t.Errorf("FormatRest(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
