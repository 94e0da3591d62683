package ui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/tui/view"
)

func (a *App) showCmd() *cobra.Command {
	var eventID int64
	var day string
	var copyText bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the timetable of a day",
		Long: `Display the top-level entries of an event day with their nested entries.

The day defaults to today while the event runs, and to its first
scheduled day otherwise.

Example:
  agenda show --day 2025-06-02 --copy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}

			ctx := cmd.Context()
			event, d, err := a.eventDay(ctx, eventID, day)
			if err != nil {
				return err
			}
			entries, err := a.dayEntries(ctx, event, d)
			if err != nil {
				return fmt.Errorf("fetching entries: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "=== %s ===\n\n", formatHeader(view.DayTitle(event, d)))
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries scheduled.")
			}
			printEntries(out, event, entries, nil)

			if copyText {
				if err := clipboard.WriteAll(view.PlainDay(event, d, entries)); err != nil {
					return fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintln(out, formatMuted("\nCopied to clipboard."))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&eventID, "event", 0, "Event ID")
	cmd.Flags().StringVar(&day, "day", "", "Day to show (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&copyText, "copy", false, "Copy the day as plain text to the clipboard")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")

	return cmd
}
