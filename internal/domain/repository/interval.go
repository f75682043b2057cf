package repository

// Interval is a candle interval label as used by upstream providers.
type Interval string

const (
	Interval1Min   Interval = "1min"
	Interval5Min   Interval = "5min"
	Interval15Min  Interval = "15min"
	Interval30Min  Interval = "30min"
	Interval45Min  Interval = "45min"
	Interval1H     Interval = "1h"
	Interval2H     Interval = "2h"
	Interval4H     Interval = "4h"
	Interval1Day   Interval = "1day"
	Interval1Week  Interval = "1week"
	Interval1Month Interval = "1month"
)

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1Min, Interval5Min, Interval15Min, Interval30Min, Interval45Min,
		Interval1H, Interval2H, Interval4H, Interval1Day, Interval1Week, Interval1Month:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default interval.
func DefaultInterval() Interval { return Interval5Min }

// NormalizeInterval converts raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}
