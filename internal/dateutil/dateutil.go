// Package dateutil provides date parsing and event-local calendar helpers.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat  = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidClockFormat = errors.New("time must be in HH:MM format")
	ErrInvalidGap         = errors.New("gap must be a whole number of minutes, like 10m or 15")
)

// DateLayout is the layout used for calendar days on the command line and in storage.
const DateLayout = "2006-01-02"

// ParseDate parses a date string in YYYY-MM-DD format.
// If the string is empty, returns today's date.
// The result is midnight UTC; only the calendar part is meaningful.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return Date(time.Now()), nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// Date returns the calendar date of t (in t's own location) as midnight UTC.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDate returns the calendar date an absolute timestamp falls on in loc.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	return Date(t.In(loc))
}

// SameDate reports whether a and b share year, month and day, ignoring locations.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// OnDay reports whether the absolute timestamp t falls on day when seen from loc.
func OnDay(t time.Time, loc *time.Location, day time.Time) bool {
	return SameDate(t.In(loc), day)
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ClockOf returns the time-of-day part of t in t's location.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	return Clock{Hour: h, Minute: m, Second: s}
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, ErrInvalidClockFormat
	}
	return ClockOf(t), nil
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Combine localizes day at the given clock in loc and returns the absolute UTC instant.
func Combine(day time.Time, c Clock, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, c.Second, 0, loc).UTC()
}

// DayBounds returns the UTC instants of local midnight on day and on the following day.
func DayBounds(day time.Time, loc *time.Location) (from, to time.Time) {
	from = Combine(day, Clock{}, loc)
	to = Combine(day.AddDate(0, 0, 1), Clock{}, loc)
	return from, to
}

// ParseGap parses a gap given either as a Go duration ("10m", "1h30m") or as a bare
// number of minutes ("15"). Negative values and gaps that are not whole minutes
// are rejected.
func ParseGap(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, ErrInvalidGap
		}
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 || d%time.Minute != 0 {
		return 0, ErrInvalidGap
	}
	return d, nil
}

// FormatDuration renders d as "1h30m", "45m" or "2h".
func FormatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%s%dm", sign, m)
	case m == 0:
		return fmt.Sprintf("%s%dh", sign, h)
	default:
		return fmt.Sprintf("%s%dh%02dm", sign, h, m)
	}
}
