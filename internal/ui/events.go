package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/dateutil"
)

func (a *App) eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}
			events, err := a.store.ListEvents(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events found.")
				return nil
			}
			for _, e := range events {
				start, end := e.StartDt.In(e.Location()), e.EndDt.In(e.Location())
				fmt.Fprintf(out, "%s  %s  %s\n",
					formatStats(fmt.Sprintf("%4d", e.ID)),
					formatHeader(e.Title),
					formatMuted(fmt.Sprintf("%s to %s (%s)", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"), e.Location())),
				)
			}
			return nil
		},
	}
}

func (a *App) daysCmd() *cobra.Command {
	var eventID int64

	cmd := &cobra.Command{
		Use:   "days",
		Short: "List the days of an event that have entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.ensureStore(); err != nil {
				return err
			}
			event, err := a.resolveEvent(ctx, eventID)
			if err != nil {
				return err
			}
			days, err := a.store.ListEventDays(ctx, event.ID, event.Location())
			if err != nil {
				return fmt.Errorf("listing days: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(days) == 0 {
				fmt.Fprintln(out, "No entries scheduled.")
				return nil
			}
			for _, d := range days {
				entries, err := a.dayEntries(ctx, event, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %-9s  %s\n",
					d.Format(dateutil.DateLayout), d.Format("Monday"),
					formatStats(fmt.Sprintf("%d %s", len(entries), plural(len(entries), "entry", "entries"))))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&eventID, "event", 0, "Event ID")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
