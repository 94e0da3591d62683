package reschedule

import (
	"fmt"
	"time"

	"github.com/javiermolinar/agenda/internal/timetable"
)

// fitBlocks resizes every session block to span exactly its children.
// Blocks without children are left alone.
func fitBlocks(entries []*timetable.Entry) {
	for _, e := range entries {
		if e.IsSessionBlock() {
			fitBlock(e)
		}
	}
}

func fitBlock(e *timetable.Entry) {
	if len(e.Children) == 0 {
		return
	}
	first := e.Children[0]
	last := e.Children[len(e.Children)-1]
	e.SetStart(first.StartDt)
	e.SetDuration(last.EndDt().Sub(e.StartDt))
}

// rescheduleTime places entries back to back starting at start, keeping durations.
func rescheduleTime(entries []*timetable.Entry, start time.Time, gap time.Duration) {
	cursor := start
	for _, e := range entries {
		e.Move(cursor)
		cursor = e.EndDt().Add(gap)
	}
}

// rescheduleDuration stretches or shrinks each entry so it ends gap before its
// successor starts. Every pair is checked before anything is changed.
func rescheduleDuration(entries []*timetable.Entry, gap time.Duration) error {
	if len(entries) < 2 {
		return nil
	}

	durations := make([]time.Duration, len(entries)-1)
	for i := range durations {
		entry, successor := entries[i], entries[i+1]
		d := successor.StartDt.Sub(entry.StartDt) - gap
		if d < MinDuration {
			return fmt.Errorf("%w (%q would last %s, the minimum is %s)", ErrGapTooLarge, entry.Title, d, MinDuration)
		}
		durations[i] = d
	}

	for i, d := range durations {
		entries[i].SetDuration(d)
	}
	return nil
}
