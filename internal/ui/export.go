package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/ical"
	"github.com/javiermolinar/agenda/internal/timetable"
)

func (a *App) exportCmd() *cobra.Command {
	var eventID int64
	var day string
	var all bool
	var icsPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a day as an iCalendar file",
		Long: `Write the entries of a day, or of the whole event, as iCalendar events.

Every entry, nested ones included, becomes a VEVENT. Nested entries
point at their parent with RELATED-TO.

Example:
  agenda export --day 2025-06-02 --ics day1.ics
  agenda export --all --ics - > summer-school.ics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			event, d, err := a.eventDay(ctx, eventID, day)
			if err != nil {
				return err
			}

			days := []time.Time{d}
			if all {
				days = event.Days()
			}
			var entries []*timetable.Entry
			for _, d := range days {
				found, err := a.dayEntries(ctx, event, d)
				if err != nil {
					return fmt.Errorf("fetching entries: %w", err)
				}
				entries = append(entries, found...)
			}

			if icsPath == "-" {
				return ical.Write(cmd.OutOrStdout(), event, entries)
			}
			if err := writeICS(icsPath, event, entries); err != nil {
				return err
			}
			n := len(timetable.Flatten(entries))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", formatStats(fmt.Sprintf("%d %s", n, plural(n, "entry", "entries"))), icsPath)
			return nil
		},
	}

	cmd.Flags().Int64Var(&eventID, "event", 0, "Event ID")
	cmd.Flags().StringVar(&day, "day", "", "Day to export (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&all, "all", false, "Export every day of the event")
	cmd.Flags().StringVar(&icsPath, "ics", "-", "Output file, - for stdout")
	cmd.MarkFlagsMutuallyExclusive("day", "all")

	return cmd
}

func writeICS(path string, event *timetable.Event, entries []*timetable.Entry) (err error) {
	path, err = resolvePath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return ical.Write(f, event, entries)
}
