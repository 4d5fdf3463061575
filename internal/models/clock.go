package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the normalized calendar-date form doses are stored under.
const DateLayout = "02-01-2006"

// MidnightAlias is accepted as a spelling of "00:00".
const MidnightAlias = "24:00"

var ErrMalformedTime = errors.New("malformed scheduled time")

// DateKey returns the normalized date string of t in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a normalized date string into midnight of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// MinutesOfDay returns the minutes elapsed since local midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ClockMinutes parses "HH:MM" into minutes since midnight, treating
// "24:00" as 0.
func ClockMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == MidnightAlias {
		return 0, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// HourClock formats an hour of day as "HH:00".
func HourClock(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// FormatMinutes formats minutes since midnight as "HH:MM".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
