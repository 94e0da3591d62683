package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/timetable"
	"github.com/javiermolinar/agenda/internal/tui/view"
)

// eventDay resolves the event and day a command works on.
func (a *App) eventDay(ctx context.Context, eventID int64, day string) (*timetable.Event, time.Time, error) {
	if err := a.ensureStore(); err != nil {
		return nil, time.Time{}, err
	}
	event, err := a.resolveEvent(ctx, eventID)
	if err != nil {
		return nil, time.Time{}, err
	}
	d, err := a.resolveDay(ctx, event, day)
	if err != nil {
		return nil, time.Time{}, err
	}
	return event, d, nil
}

// dayEntries loads the top-level entries of a day, the same selection a
// reschedule of the whole day works on.
func (a *App) dayEntries(ctx context.Context, event *timetable.Event, day time.Time) ([]*timetable.Entry, error) {
	r, err := reschedule.New(event, a.store, reschedule.Options{Mode: reschedule.ModeNone, Day: day})
	if err != nil {
		return nil, err
	}
	return r.Entries(ctx)
}

// printEntries prints entry trees, highlighting the changed ones.
func printEntries(w io.Writer, event *timetable.Event, entries, changed []*timetable.Entry) {
	loc := event.Location()
	maxTitle := max(termWidth()-24, 20)

	for _, r := range view.Rows(entries, changed) {
		times := view.TimeRange(r.Entry, loc)
		title := view.Truncate(view.Label(r), maxTitle)
		if r.Changed {
			times = formatChanged(times)
			title = formatChanged(title)
		} else {
			title = formatEntry(r.Entry, title)
		}
		fmt.Fprintf(w, "  %s  %s %s\n", times, title, formatMuted("("+dateutil.FormatDuration(r.Entry.Duration)+")"))
	}
}
