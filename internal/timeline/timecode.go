package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxTimestamp is the largest offset a time.Duration can hold.
const maxTimestamp = time.Duration(math.MaxInt64)

// ParseTimestamp converts HH:MM:SS or MM:SS (optionally with a fractional
// seconds part) into a duration from the start of the base track.
func ParseTimestamp(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("timestamp: empty value")
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("timestamp %q: expected HH:MM:SS or MM:SS", value)
	}

	secField := parts[len(parts)-1]
	whole, frac, hasFrac := strings.Cut(secField, ".")
	seconds, err := parseField(whole, 59)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: seconds: %w", value, err)
	}
	var fraction time.Duration
	if hasFrac {
		if frac == "" || len(frac) > 9 || strings.TrimLeft(frac, "0123456789") != "" {
			return 0, fmt.Errorf("timestamp %q: invalid fractional seconds", value)
		}
		padded := frac + strings.Repeat("0", 9-len(frac))
		nanos, err := strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp %q: fractional seconds: %w", value, err)
		}
		fraction = time.Duration(nanos)
	}

	var hours, minutes int64
	if len(parts) == 3 {
		if hours, err = parseField(parts[0], int64(maxTimestamp/time.Hour)); err != nil {
			return 0, fmt.Errorf("timestamp %q: hours: %w", value, err)
		}
		if minutes, err = parseField(parts[1], 59); err != nil {
			return 0, fmt.Errorf("timestamp %q: minutes: %w", value, err)
		}
	} else {
		if minutes, err = parseField(parts[0], int64(maxTimestamp/time.Minute)); err != nil {
			return 0, fmt.Errorf("timestamp %q: minutes: %w", value, err)
		}
	}

	total := time.Duration(hours) * time.Hour
	for _, part := range []time.Duration{time.Duration(minutes) * time.Minute, time.Duration(seconds) * time.Second, fraction} {
		if total > maxTimestamp-part {
			return 0, fmt.Errorf("timestamp %q: out of range", value)
		}
		total += part
	}
	return total, nil
}

// parseField parses a non-negative integer field no larger than max.
func parseField(field string, max int64) (int64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, fmt.Errorf("empty field")
	}
	if strings.TrimLeft(field, "0123456789") != "" {
		return 0, fmt.Errorf("non-numeric field %q", field)
	}
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, fmt.Errorf("field %q exceeds %d", field, max)
	}
	return n, nil
}

// FormatTimestamp renders d as HH:MM:SS, appending milliseconds when d is
// not a whole number of seconds.
func FormatTimestamp(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = d.Round(time.Millisecond)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	if millis == 0 {
		return fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, minutes, seconds)
	}
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, hours, minutes, seconds, millis)
}

// Seconds renders d as fractional seconds with millisecond precision, the
// form ffmpeg filter expressions expect.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Round(time.Millisecond).Seconds(), 'f', -1, 64)
}
