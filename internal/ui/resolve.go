package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/timetable"
)

// Event selection errors.
var (
	ErrNoEvents       = errors.New("no events found, import one with 'agenda import'")
	ErrAmbiguousEvent = errors.New("several events found, choose one with --event")
)

// resolveEvent picks the event from the flag, the configured default or the
// only event in the store.
func (a *App) resolveEvent(ctx context.Context, id int64) (*timetable.Event, error) {
	if id == 0 {
		id = a.config.UI.Event
	}
	if id != 0 {
		return a.store.GetEvent(ctx, id)
	}

	events, err := a.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	switch len(events) {
	case 0:
		return nil, ErrNoEvents
	case 1:
		return events[0], nil
	default:
		return nil, ErrAmbiguousEvent
	}
}

// resolveDay parses s, or picks today if the event runs today, or the first day
// with entries.
func (a *App) resolveDay(ctx context.Context, event *timetable.Event, s string) (time.Time, error) {
	if s != "" {
		return dateutil.ParseDate(s)
	}

	today := event.LocalDate(a.now())
	for _, d := range event.Days() {
		if dateutil.SameDate(d, today) {
			return dateutil.Date(d), nil
		}
	}

	days, err := a.store.ListEventDays(ctx, event.ID, event.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("listing days: %w", err)
	}
	if len(days) > 0 {
		return dateutil.Date(days[0]), nil
	}
	return dateutil.Date(event.Days()[0]), nil
}
