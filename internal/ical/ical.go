// Package ical exports event timetables as iCalendar documents.
package ical

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/javiermolinar/agenda/internal/timetable"
)

// ProductID identifies documents produced by agenda.
const ProductID = "-//agenda//timetable export//EN"

// UID returns a stable identifier for an entry: the same event and entry
// always produce the same UID, so re-importing an export updates in place.
func UID(eventID, entryID int64) string {
	name := fmt.Sprintf("agenda:event:%d:entry:%d", eventID, entryID)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@agenda"
}

// Day builds a calendar holding one VEVENT per entry, nested entries included.
// Child entries carry a RELATED-TO pointing at their parent.
func Day(event *timetable.Event, entries []*timetable.Entry) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(event.Title)
	cal.SetXWRTimezone(event.Location().String())

	stamp := time.Now().UTC()
	timetable.Walk(entries, func(e *timetable.Entry) bool {
		ve := cal.AddEvent(UID(event.ID, e.ID))
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(e.StartDt.UTC())
		ve.SetEndAt(e.EndDt().UTC())
		ve.SetSummary(e.Title)
		ve.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(e.Type)))
		if e.Parent != nil {
			ve.AddProperty(ics.ComponentProperty("RELATED-TO"), UID(event.ID, e.Parent.ID))
		}
		return true
	})
	return cal
}

// Write serializes the calendar for entries to w.
func Write(w io.Writer, event *timetable.Event, entries []*timetable.Entry) error {
	if _, err := io.WriteString(w, Day(event, entries).Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}
