// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/hooks"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/timetable"
)

// Store is the storage the TUI needs.
type Store interface {
	reschedule.Store
	ListEventDays(ctx context.Context, eventID int64, loc *time.Location) ([]time.Time, error)
}

// DaysLoadedMsg is sent when the days of the event are known.
type DaysLoadedMsg struct {
	Days []time.Time
}

// DayLoadedMsg is sent when a day and its rescheduling preview are loaded.
type DayLoadedMsg struct {
	Day     time.Time
	Current []*timetable.Entry
	Preview []*timetable.Entry
	Result  *reschedule.Result
	// PreviewErr is set when the chosen options cannot be applied, e.g. a gap
	// that is too large for duration mode. Current is still valid.
	PreviewErr error
}

// AppliedMsg is sent when a reschedule has been flushed.
type AppliedMsg struct {
	Result *reschedule.Result
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// snapshot serves clones of entries that are already loaded, so a preview
// works on its own trees without querying the store again.
type snapshot struct {
	reschedule.Store
	entries []*timetable.Entry
}

func (s snapshot) ListTopLevelEntries(context.Context, int64, time.Time, time.Time) ([]*timetable.Entry, error) {
	return timetable.Clone(s.entries), nil
}

// LoadDays loads the days that have entries, falling back to every event day.
func LoadDays(store Store, event *timetable.Event) tea.Cmd {
	return func() tea.Msg {
		days, err := store.ListEventDays(context.Background(), event.ID, event.Location())
		if err != nil {
			return ErrMsg{Err: err}
		}
		if len(days) == 0 {
			days = event.Days()
		}
		return DaysLoadedMsg{Days: days}
	}
}

// LoadDay loads the entries of opts.Day and computes a preview of rescheduling
// them with opts. The preview is never flushed.
func LoadDay(store Store, event *timetable.Event, opts reschedule.Options) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		r, err := reschedule.New(event, store, reschedule.Options{Mode: reschedule.ModeNone, Day: opts.Day})
		if err != nil {
			return ErrMsg{Err: err}
		}
		current, err := r.Entries(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		msg := DayLoadedMsg{Day: opts.Day, Current: current}

		preview, err := reschedule.New(event, reschedule.DryRun(snapshot{Store: store, entries: current}), opts)
		if err != nil {
			msg.PreviewErr = err
			return msg
		}
		if err := preview.Run(ctx); err != nil {
			msg.PreviewErr = err
			return msg
		}
		msg.Preview, _ = preview.Entries(ctx)
		msg.Result = preview.Result()
		return msg
	}
}

// Apply reschedules the day for real and calls the registry hooks.
func Apply(store Store, event *timetable.Event, opts reschedule.Options, reg *hooks.Registry) tea.Cmd {
	return func() tea.Msg {
		r, err := reschedule.New(event, store, opts)
		if err != nil {
			return ErrMsg{Err: err}
		}
		if err := r.WithHooks(reg).Run(context.Background()); err != nil {
			debuglog.Error("apply", err)
			return ErrMsg{Err: err}
		}
		return AppliedMsg{Result: r.Result()}
	}
}

// CopyText puts text on the system clipboard.
func CopyText(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return StatusMsgCmd{Msg: "Copied day to clipboard"}
	}
}
