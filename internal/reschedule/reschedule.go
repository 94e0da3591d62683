// Package reschedule compacts the timetable of an event day by adjusting either
// the start times or the durations of its entries.
package reschedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/hooks"
	"github.com/javiermolinar/agenda/internal/timetable"
)

// Validation errors.
var (
	ErrInvalidMode = errors.New("mode must be 'none', 'time' or 'duration'")
	ErrNegativeGap = errors.New("gap cannot be negative")
	ErrPartialGap  = errors.New("gap must be a whole number of minutes")
	ErrGapTooLarge = errors.New("the chosen time gap would result in an entry with a duration of less than a minute, please choose a smaller gap between entries")
)

// MinDuration is the smallest duration duration-mode may assign to an entry.
const MinDuration = time.Minute

// HookDone is called after a successful run with "result" set to the *Result.
// Receiver errors are logged, never returned.
const HookDone = "reschedule.done"

// Mode selects what is adjusted.
type Mode string

const (
	ModeNone     Mode = "none" // only fit blocks
	ModeTime     Mode = "time"
	ModeDuration Mode = "duration"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeTime, ModeDuration:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Modes returns every mode in cycling order.
func Modes() []Mode {
	return []Mode{ModeNone, ModeTime, ModeDuration}
}

// Store is the storage the rescheduler needs: a query for top-level entries and
// a unit of work that persists staged changes.
type Store interface {
	ListTopLevelEntries(ctx context.Context, eventID int64, from, to time.Time) ([]*timetable.Entry, error)
	Flush(ctx context.Context, entries []*timetable.Entry) error
}

// Options configures a Rescheduler.
type Options struct {
	Mode Mode
	// Day is the calendar day to reschedule, interpreted in the event timezone.
	Day time.Time
	// Session restricts rescheduling to the blocks of that session.
	// Cannot be combined with SessionBlock.
	Session *timetable.Session
	// SessionBlock restricts rescheduling to the entries inside that block.
	// Cannot be combined with Session.
	SessionBlock *timetable.SessionBlock
	// FitBlocks resizes session blocks to exactly fit their contents first.
	FitBlocks bool
	// Gap is the time left between rescheduled entries.
	Gap time.Duration
}

// Result summarizes a run.
type Result struct {
	Mode    Mode
	Day     time.Time
	Entries int                // number of selected entries
	Changed []*timetable.Entry // entries whose start or duration changed
}

// Rescheduler is a single-shot command: build it with New and call Run once.
type Rescheduler struct {
	event *timetable.Event
	store Store
	opts  Options
	hooks *hooks.Registry

	selected []*timetable.Entry
	loaded   bool
	result   *Result
}

// New creates a Rescheduler. Supplying both Session and SessionBlock is a
// programming error and panics.
func New(event *timetable.Event, store Store, opts Options) (*Rescheduler, error) {
	if opts.Session != nil && opts.SessionBlock != nil {
		panic("reschedule: session and session block are mutually exclusive")
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Gap < 0 {
		return nil, ErrNegativeGap
	}
	// timestamps are stored with second precision; keep gaps on the minute grid
	if opts.Gap%time.Minute != 0 {
		return nil, fmt.Errorf("%w: %s", ErrPartialGap, opts.Gap)
	}
	if opts.SessionBlock != nil && opts.SessionBlock.Entry == nil {
		return nil, fmt.Errorf("%w: block %d is not scheduled", timetable.ErrEntryNotFound, opts.SessionBlock.ID)
	}
	opts.Day = dateutil.Date(opts.Day)
	return &Rescheduler{event: event, store: store, opts: opts}, nil
}

// WithHooks attaches a hook registry called after a successful run.
func (r *Rescheduler) WithHooks(reg *hooks.Registry) *Rescheduler {
	r.hooks = reg
	return r
}

// Run performs the rescheduling and flushes the changes.
func (r *Rescheduler) Run(ctx context.Context) error {
	entries, err := r.entries(ctx)
	if err != nil {
		return err
	}
	before := timetable.Clone(entries)

	if r.opts.FitBlocks {
		fitBlocks(entries)
	}

	switch r.opts.Mode {
	case ModeTime:
		rescheduleTime(entries, r.startDt(), r.opts.Gap)
	case ModeDuration:
		if err := rescheduleDuration(entries, r.opts.Gap); err != nil {
			return err
		}
	}

	if err := r.store.Flush(ctx, entries); err != nil {
		return fmt.Errorf("flushing timetable: %w", err)
	}

	r.result = &Result{
		Mode:    r.opts.Mode,
		Day:     r.opts.Day,
		Entries: len(entries),
		Changed: timetable.Changed(before, entries),
	}

	// the changes are committed at this point, so receivers cannot fail the run
	if r.hooks != nil {
		if _, err := r.hooks.Call(ctx, HookDone, map[string]any{"event": r.event, "result": r.result}); err != nil {
			debuglog.Error(HookDone, err)
		}
	}
	return nil
}

// Result returns the outcome of the last successful Run, or nil.
func (r *Rescheduler) Result() *Result {
	return r.result
}

// Entries returns the selected entries, loading them on first use.
func (r *Rescheduler) Entries(ctx context.Context) ([]*timetable.Entry, error) {
	return r.entries(ctx)
}

// startDt is where time-mode places the first entry.
func (r *Rescheduler) startDt() time.Time {
	if r.opts.SessionBlock != nil {
		return r.opts.SessionBlock.Entry.StartDt
	}
	return dateutil.Combine(r.opts.Day, r.event.DayStart(), r.event.Location())
}

// entries selects the entries to reschedule once and caches the result.
func (r *Rescheduler) entries(ctx context.Context) ([]*timetable.Entry, error) {
	if r.loaded {
		return r.selected, nil
	}

	loc := r.event.Location()
	var selected []*timetable.Entry

	switch {
	case r.opts.SessionBlock != nil:
		for _, e := range r.opts.SessionBlock.Entry.Children {
			// a block only holds entries of its own day
			if !dateutil.OnDay(e.StartDt, loc, r.opts.Day) {
				panic(fmt.Sprintf("reschedule: entry %d of block %d is not on %s",
					e.ID, r.opts.SessionBlock.ID, r.opts.Day.Format(dateutil.DateLayout)))
			}
			selected = append(selected, e)
		}

	case r.opts.Session != nil:
		for _, b := range r.opts.Session.Blocks {
			if !b.IsScheduled() {
				continue
			}
			if dateutil.OnDay(b.Entry.StartDt, loc, r.opts.Day) {
				selected = append(selected, b.Entry)
			}
		}

	default:
		from, to := dateutil.DayBounds(r.opts.Day, loc)
		found, err := r.store.ListTopLevelEntries(ctx, r.event.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("listing entries: %w", err)
		}
		for _, e := range found {
			if e.IsTopLevel() && dateutil.OnDay(e.StartDt, loc, r.opts.Day) {
				selected = append(selected, e)
			}
		}
	}

	timetable.SortByStart(selected)
	r.selected = selected
	r.loaded = true
	return selected, nil
}
