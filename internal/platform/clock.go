package platform

import "time"

// DatetimeLayout is the on-disk timestamp format: ISO-8601, UTC, second
// precision, no offset suffix. Timestamps in this layout sort
// chronologically as plain strings.
const DatetimeLayout = "2006-01-02T15:04:05"

// Clock supplies the current time for new entries.
type Clock interface {
	Now() string
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time in DatetimeLayout.
func (SystemClock) Now() string {
	return FormatDatetime(time.Now())
}

// FormatDatetime renders t in DatetimeLayout after converting to UTC.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(DatetimeLayout)
}

// ParseDatetime parses a timestamp in DatetimeLayout as UTC.
func ParseDatetime(s string) (time.Time, error) {
	return time.ParseInLocation(DatetimeLayout, s, time.UTC)
}

// OldDatetime returns a timestamp 30 days in the past. Apps use it for
// default values that any real edit, on any device, should override.
func OldDatetime() string {
	return FormatDatetime(time.Now().Add(-30 * 24 * time.Hour))
}
