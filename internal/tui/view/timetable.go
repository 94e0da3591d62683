// Package view provides rendering helpers for the TUI and the plain-text day view.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/timetable"
)

// TimeLayout is used for entry start and end times.
const TimeLayout = "15:04"

// Row is one displayed entry with its nesting depth.
type Row struct {
	Entry   *timetable.Entry
	Depth   int
	Changed bool
}

// Rows flattens entry trees depth-first. Entries whose ID is in changed are flagged.
func Rows(entries []*timetable.Entry, changed []*timetable.Entry) []Row {
	ids := make(map[int64]bool, len(changed))
	for _, e := range changed {
		ids[e.ID] = true
	}

	var rows []Row
	var walk func(es []*timetable.Entry, depth int)
	walk = func(es []*timetable.Entry, depth int) {
		for _, e := range es {
			rows = append(rows, Row{Entry: e, Depth: depth, Changed: ids[e.ID]})
			walk(e.Children, depth+1)
		}
	}
	walk(entries, 0)
	return rows
}

// TimeRange formats the start and end of an entry in loc.
func TimeRange(e *timetable.Entry, loc *time.Location) string {
	return e.StartDt.In(loc).Format(TimeLayout) + "-" + e.EndDt().In(loc).Format(TimeLayout)
}

// Label is the indented title of a row.
func Label(r Row) string {
	return strings.Repeat("  ", r.Depth) + r.Entry.Title
}

// Line formats a row as plain text.
func Line(r Row, loc *time.Location) string {
	return fmt.Sprintf("%s  %s (%s)", TimeRange(r.Entry, loc), Label(r), dateutil.FormatDuration(r.Entry.Duration))
}

// DayTitle names an event day, e.g. "Summer School, Tuesday 3 June 2025 (Europe/Zurich)".
func DayTitle(event *timetable.Event, day time.Time) string {
	return fmt.Sprintf("%s, %s (%s)", event.Title, day.Format("Monday 2 January 2006"), event.Location())
}

// PlainDay renders the entries of a day as plain text.
func PlainDay(event *timetable.Event, day time.Time, entries []*timetable.Entry) string {
	var b strings.Builder
	b.WriteString(DayTitle(event, day))
	b.WriteString("\n\n")
	if len(entries) == 0 {
		b.WriteString("No entries scheduled.\n")
		return b.String()
	}
	loc := event.Location()
	for _, r := range Rows(entries, nil) {
		b.WriteString(Line(r, loc))
		b.WriteByte('\n')
	}
	return b.String()
}
