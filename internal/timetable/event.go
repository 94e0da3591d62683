package timetable

import (
	"fmt"
	"time"

	"github.com/javiermolinar/agenda/internal/dateutil"
)

// Event owns a timetable and the timezone its days are interpreted in.
type Event struct {
	ID        int64
	Title     string
	Timezone  string    // IANA name, e.g. "Europe/Zurich"
	StartDt   time.Time // UTC
	EndDt     time.Time // UTC
	CreatedAt time.Time

	loc *time.Location
}

// NewEvent creates a new Event with validation.
func NewEvent(title, timezone string, start, end time.Time) (*Event, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("event end must be after start")
	}
	return &Event{
		Title:     title,
		Timezone:  timezone,
		StartDt:   start.UTC(),
		EndDt:     end.UTC(),
		CreatedAt: time.Now(),
		loc:       loc,
	}, nil
}

// Location returns the event timezone, falling back to UTC for unknown names.
func (e *Event) Location() *time.Location {
	if e.loc != nil {
		return e.loc
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		loc = time.UTC
	}
	e.loc = loc
	return loc
}

// StartLocal returns the event start in the event timezone.
func (e *Event) StartLocal() time.Time {
	return e.StartDt.In(e.Location())
}

// DayStart returns the default local start-of-day time: the clock part of the event start.
func (e *Event) DayStart() dateutil.Clock {
	return dateutil.ClockOf(e.StartLocal())
}

// LocalDate returns the event-local calendar date an instant falls on.
func (e *Event) LocalDate(t time.Time) time.Time {
	return dateutil.LocalDate(t, e.Location())
}

// Days returns every calendar day the event spans, in event-local time.
func (e *Event) Days() []time.Time {
	first := e.LocalDate(e.StartDt)
	last := e.LocalDate(e.EndDt)
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Session groups session blocks of an event.
type Session struct {
	ID      int64
	EventID int64
	Title   string
	Blocks  []*SessionBlock
}

// SessionBlock is a slot of a session. Entry is nil while the block is unscheduled.
type SessionBlock struct {
	ID        int64
	SessionID int64
	Title     string
	Entry     *Entry
}

// IsScheduled returns true if the block has a timetable entry.
func (b *SessionBlock) IsScheduled() bool {
	return b.Entry != nil
}
