// Package timetable defines the core domain types for agenda.
package timetable

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Validation errors.
var (
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrInvalidEntryType = errors.New("type must be 'session_block', 'contribution' or 'break'")
	ErrInvalidDuration  = errors.New("duration must be positive")
	ErrInvalidTimezone  = errors.New("unknown timezone")
)

// Domain errors.
var (
	ErrNotContained    = errors.New("entry must be contained in its parent")
	ErrEntryNotFound   = errors.New("timetable entry not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrBlockNotFound   = errors.New("session block not found")
	ErrBlockScheduled  = errors.New("session block already has a timetable entry")
	ErrNestedBlock     = errors.New("session block entries must be top-level")
)

// EntryType identifies what a timetable entry schedules.
type EntryType string

const (
	EntryTypeSessionBlock EntryType = "session_block"
	EntryTypeContribution EntryType = "contribution"
	EntryTypeBreak        EntryType = "break"
)

// ParseEntryType parses a type name.
func ParseEntryType(s string) (EntryType, error) {
	switch EntryType(s) {
	case EntryTypeSessionBlock, EntryTypeContribution, EntryTypeBreak:
		return EntryType(s), nil
	default:
		return "", ErrInvalidEntryType
	}
}

// Entry is a scheduled item of an event timetable.
type Entry struct {
	ID             int64
	EventID        int64
	Type           EntryType
	Title          string
	StartDt        time.Time // always UTC
	Duration       time.Duration
	ParentID       *int64
	SessionBlockID *int64 // set for session block entries

	Parent   *Entry
	Children []*Entry // sorted by StartDt

	dirty bool
}

// NewEntry creates an unsaved entry with validation.
func NewEntry(eventID int64, typ EntryType, title string, start time.Time, duration time.Duration) (*Entry, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if _, err := ParseEntryType(string(typ)); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	return &Entry{
		EventID:  eventID,
		Type:     typ,
		Title:    title,
		StartDt:  start.UTC(),
		Duration: duration,
	}, nil
}

// EndDt returns the end of the entry.
func (e *Entry) EndDt() time.Time {
	return e.StartDt.Add(e.Duration)
}

// IsSessionBlock returns true if the entry schedules a session block.
func (e *Entry) IsSessionBlock() bool {
	return e.Type == EntryTypeSessionBlock
}

// IsTopLevel returns true if the entry has no parent.
func (e *Entry) IsTopLevel() bool {
	return e.ParentID == nil
}

// Dirty reports whether the entry has staged changes not yet flushed.
func (e *Entry) Dirty() bool {
	return e.dirty
}

// MarkClean clears the staged change flag after a flush.
func (e *Entry) MarkClean() {
	e.dirty = false
}

// SetStart sets the start time without touching children.
func (e *Entry) SetStart(start time.Time) {
	start = start.UTC()
	if start.Equal(e.StartDt) {
		return
	}
	e.StartDt = start
	e.dirty = true
}

// SetDuration sets the duration of the scheduled object.
func (e *Entry) SetDuration(d time.Duration) {
	if d == e.Duration {
		return
	}
	e.Duration = d
	e.dirty = true
}

// Move repositions the entry to start and shifts all descendants by the same offset.
func (e *Entry) Move(start time.Time) {
	delta := start.UTC().Sub(e.StartDt)
	if delta == 0 {
		return
	}
	e.shift(delta)
}

func (e *Entry) shift(delta time.Duration) {
	e.StartDt = e.StartDt.Add(delta)
	e.dirty = true
	for _, c := range e.Children {
		c.shift(delta)
	}
}

// Contains reports whether other lies within the entry's [StartDt, EndDt) interval.
func (e *Entry) Contains(other *Entry) bool {
	return !other.StartDt.Before(e.StartDt) && !other.EndDt().After(e.EndDt())
}

// AddChild attaches a child, keeping children sorted by start time.
// Returns ErrNotContained if the child falls outside the entry.
func (e *Entry) AddChild(c *Entry) error {
	if !e.Contains(c) {
		return fmt.Errorf("%w: %q (%s-%s) is outside %q (%s-%s)",
			ErrNotContained,
			c.Title, c.StartDt.Format(time.RFC3339), c.EndDt().Format(time.RFC3339),
			e.Title, e.StartDt.Format(time.RFC3339), e.EndDt().Format(time.RFC3339),
		)
	}
	c.Parent = e
	if e.ID != 0 {
		id := e.ID
		c.ParentID = &id
	}
	e.Children = append(e.Children, c)
	SortByStart(e.Children)
	return nil
}

// String returns a short human readable description.
func (e *Entry) String() string {
	return fmt.Sprintf("#%d %s %q %s-%s", e.ID, e.Type, e.Title,
		e.StartDt.Format("15:04"), e.EndDt().Format("15:04"))
}

// SortByStart sorts entries by start time, breaking ties by ID.
func SortByStart(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		if c := a.StartDt.Compare(b.StartDt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
}
