package ui

import (
	"context"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/hooks"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/timetable"
)

// registerHooks wires the built-in receivers.
func registerHooks(reg *hooks.Registry) {
	reg.Register(reschedule.HookDone, logReschedule, hooks.Plugin("debuglog"), hooks.Priority(10))
}

// logReschedule records every completed reschedule in the debug log.
func logReschedule(_ context.Context, args map[string]any) (string, error) {
	res, ok := args["result"].(*reschedule.Result)
	if !ok {
		return "", nil
	}
	data := map[string]any{
		"mode":    string(res.Mode),
		"day":     res.Day.Format(dateutil.DateLayout),
		"entries": res.Entries,
		"changed": len(res.Changed),
	}
	if event, ok := args["event"].(*timetable.Event); ok {
		data["event"] = event.ID
	}
	debuglog.Event("RESCHEDULED", data)
	debuglog.Entries("rescheduled", res.Changed)
	return "", nil
}
