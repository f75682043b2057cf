package util

import "time"

// NewsWindow returns the [from, to] range covering the given lookback ending
// at now, both truncated to whole days in UTC.
func NewsWindow(now time.Time, lookback time.Duration) (time.Time, time.Time) {
	to := now.UTC().Truncate(24 * time.Hour)
	from := to.Add(-lookback).Truncate(24 * time.Hour)
	return from, to
}

// FormatDay renders t as YYYY-MM-DD in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// ParseCandleTime parses the datetime strings used by candle providers:
// "2006-01-02 15:04:05", "2006-01-02" or RFC3339.
func ParseCandleTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.DateTime, time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
