// Package fixture imports event timetables from YAML documents.
//
// Times are wall-clock times in the event timezone ("2006-01-02T15:04") and
// durations use Go syntax ("45m", "1h30m"). A document looks like:
//
//	event:
//	  title: Summer School
//	  timezone: Europe/Zurich
//	  start: 2025-06-02T09:00
//	  end: 2025-06-06T18:00
//	sessions:
//	  - title: Parallel A
//	    blocks:
//	      - title: Morning
//	        start: 2025-06-02T10:00
//	        duration: 2h
//	        entries:
//	          - {title: Talk 1, start: 2025-06-02T10:00, duration: 30m}
//	entries:
//	  - {title: Welcome, type: contribution, start: 2025-06-02T09:00, duration: 30m}
package fixture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/agenda/internal/timetable"
)

// LocalTimeLayout is the layout of times in a fixture document.
const LocalTimeLayout = "2006-01-02T15:04"

// Validation errors.
var (
	ErrMissingEvent    = errors.New("fixture has no event")
	ErrMissingStart    = errors.New("entry needs a start time")
	ErrInvalidDuration = errors.New("duration must be a positive Go duration like 45m")
)

// Document is a parsed fixture.
type Document struct {
	Event    EventSpec     `yaml:"event"`
	Sessions []SessionSpec `yaml:"sessions"`
	Entries  []EntrySpec   `yaml:"entries"`
}

// EventSpec describes the event.
type EventSpec struct {
	Title    string    `yaml:"title"`
	Timezone string    `yaml:"timezone"`
	Start    LocalTime `yaml:"start"`
	End      LocalTime `yaml:"end"`
}

// SessionSpec describes a session and its blocks.
type SessionSpec struct {
	Title  string      `yaml:"title"`
	Blocks []BlockSpec `yaml:"blocks"`
}

// BlockSpec describes a session block. Blocks without a start stay unscheduled.
type BlockSpec struct {
	Title    string      `yaml:"title"`
	Start    LocalTime   `yaml:"start"`
	Duration Duration    `yaml:"duration"`
	Entries  []EntrySpec `yaml:"entries"`
}

// EntrySpec describes a contribution or break, possibly with nested entries.
type EntrySpec struct {
	Title    string      `yaml:"title"`
	Type     string      `yaml:"type"`
	Start    LocalTime   `yaml:"start"`
	Duration Duration    `yaml:"duration"`
	Entries  []EntrySpec `yaml:"entries"`
}

// LocalTime is a wall-clock time without zone, resolved against the event timezone.
type LocalTime struct {
	time.Time
}

// UnmarshalYAML parses a LocalTimeLayout scalar.
func (t *LocalTime) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.Parse(LocalTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: time %q must look like %s", value.Line, s, LocalTimeLayout)
	}
	t.Time = parsed
	return nil
}

// In interprets the wall-clock time in loc.
func (t LocalTime) In(loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// Duration is a time.Duration written in Go syntax.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a Go duration scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || parsed <= 0 {
		return fmt.Errorf("line %d: %w: %q", value.Line, ErrInvalidDuration, s)
	}
	d.Duration = parsed
	return nil
}

// Load reads and parses a fixture file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a fixture document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if d.Event.Title == "" {
		return ErrMissingEvent
	}
	if d.Event.Timezone == "" {
		d.Event.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(d.Event.Timezone); err != nil {
		return fmt.Errorf("%w: %q", timetable.ErrInvalidTimezone, d.Event.Timezone)
	}
	for _, s := range d.Sessions {
		for _, b := range s.Blocks {
			if b.Start.IsZero() {
				if len(b.Entries) > 0 {
					return fmt.Errorf("block %q: %w", b.Title, ErrMissingStart)
				}
				continue
			}
			if b.Duration.Duration <= 0 {
				return fmt.Errorf("block %q: %w", b.Title, ErrInvalidDuration)
			}
			if err := validateEntries(b.Entries); err != nil {
				return err
			}
		}
	}
	return validateEntries(d.Entries)
}

func validateEntries(entries []EntrySpec) error {
	for _, e := range entries {
		if e.Start.IsZero() {
			return fmt.Errorf("entry %q: %w", e.Title, ErrMissingStart)
		}
		if e.Duration.Duration <= 0 {
			return fmt.Errorf("entry %q: %w", e.Title, ErrInvalidDuration)
		}
		if e.Type != "" {
			typ, err := timetable.ParseEntryType(e.Type)
			if err != nil {
				return fmt.Errorf("entry %q: %w", e.Title, err)
			}
			if typ == timetable.EntryTypeSessionBlock {
				return fmt.Errorf("entry %q: %w", e.Title, timetable.ErrNestedBlock)
			}
		}
		if err := validateEntries(e.Entries); err != nil {
			return err
		}
	}
	return nil
}

// Apply creates the document's event, sessions, blocks and entries in repo.
// Nested entries are created after their parent, so containment is checked by the repository.
func Apply(ctx context.Context, repo timetable.Repository, doc *Document) (*timetable.Event, error) {
	loc, err := time.LoadLocation(doc.Event.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", timetable.ErrInvalidTimezone, doc.Event.Timezone)
	}

	event, err := timetable.NewEvent(doc.Event.Title, doc.Event.Timezone, doc.Event.Start.In(loc), doc.Event.End.In(loc))
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", doc.Event.Title, err)
	}
	if err := repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	for _, s := range doc.Sessions {
		session := &timetable.Session{EventID: event.ID, Title: s.Title}
		if err := repo.CreateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("session %q: %w", s.Title, err)
		}
		for _, b := range s.Blocks {
			block := &timetable.SessionBlock{SessionID: session.ID, Title: b.Title}
			if err := repo.CreateSessionBlock(ctx, block); err != nil {
				return nil, fmt.Errorf("block %q: %w", b.Title, err)
			}
			if b.Start.IsZero() {
				continue
			}

			entry, err := timetable.NewEntry(event.ID, timetable.EntryTypeSessionBlock, b.Title, b.Start.In(loc), b.Duration.Duration)
			if err != nil {
				return nil, fmt.Errorf("block %q: %w", b.Title, err)
			}
			entry.SessionBlockID = &block.ID
			if err := repo.CreateEntry(ctx, entry); err != nil {
				return nil, fmt.Errorf("block %q: %w", b.Title, err)
			}
			if err := createEntries(ctx, repo, event.ID, loc, entry, b.Entries); err != nil {
				return nil, err
			}
		}
	}

	if err := createEntries(ctx, repo, event.ID, loc, nil, doc.Entries); err != nil {
		return nil, err
	}
	return event, nil
}

func createEntries(ctx context.Context, repo timetable.Repository, eventID int64, loc *time.Location, parent *timetable.Entry, specs []EntrySpec) error {
	for _, s := range specs {
		typ := timetable.EntryTypeContribution
		if s.Type != "" {
			typ = timetable.EntryType(s.Type)
		}

		entry, err := timetable.NewEntry(eventID, typ, s.Title, s.Start.In(loc), s.Duration.Duration)
		if err != nil {
			return fmt.Errorf("entry %q: %w", s.Title, err)
		}
		if parent != nil {
			if err := parent.AddChild(entry); err != nil {
				return err
			}
		}
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("entry %q: %w", s.Title, err)
		}
		if err := createEntries(ctx, repo, eventID, loc, entry, s.Entries); err != nil {
			return err
		}
	}
	return nil
}
