package reschedule

import (
	"context"

	"github.com/javiermolinar/agenda/internal/timetable"
)

type dryRunStore struct {
	Store
}

// DryRun wraps store so that Flush leaves storage untouched. The in-memory
// entries still carry the rescheduled values and stay marked dirty.
func DryRun(store Store) Store {
	return dryRunStore{Store: store}
}

func (dryRunStore) Flush(context.Context, []*timetable.Entry) error {
	return nil
}
