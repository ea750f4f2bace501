package timeline

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"00:00", 0},
		{"01:30", 90 * time.Second},
		{"00:01:30", 90 * time.Second},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"90:00", 90 * time.Minute},
		{"00:00:05.5", 5500 * time.Millisecond},
		{" 00:10 ", 10 * time.Second},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTimestampRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		"", "5", "1:2:3:4", "aa:10", "00:61", "01:60:00", "00:05.", "00:-5", "00:05.1234567890",
		"3000000:00:00", "5124096:00:00", "2562047:59:59", "153722868:00", "153722867:59"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "00:00:00",
		90 * time.Second:        "00:01:30",
		3723 * time.Second:      "01:02:03",
		5500 * time.Millisecond: "00:00:05.500",
	}
	for in, want := range cases {
		if got := FormatTimestamp(in); got != want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(10 * time.Second); got != "10" {
		t.Fatalf("unexpected seconds: %q", got)
	}
	if got := Seconds(8250 * time.Millisecond); got != "8.25" {
		t.Fatalf("unexpected seconds: %q", got)
	}
}
