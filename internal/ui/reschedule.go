package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/tui/view"
)

func (a *App) rescheduleCmd() *cobra.Command {
	var (
		eventID   int64
		day       string
		mode      string
		gap       string
		fitBlocks bool
		sessionID int64
		blockID   int64
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Compact the timetable of a day",
		Long: `Reschedule the entries of an event day.

Modes:
  time      move entries back to back from the start of the day
            (or of the block), keeping their durations
  duration  stretch or shrink each entry so it ends right before the
            next one, keeping start times
  none      change nothing, only useful with --fit-blocks

--gap leaves time between consecutive entries. It takes minutes
("10") or a duration ("1h15m"). --session limits the run to the
blocks of a session, --block to the entries inside one block.

Example:
  agenda reschedule --day 2025-06-02 --mode time --gap 5 --fit-blocks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			m, err := reschedule.ParseMode(mode)
			if err != nil {
				return err
			}
			g, err := dateutil.ParseGap(gap)
			if err != nil {
				return err
			}

			if err := a.ensureStore(); err != nil {
				return err
			}
			event, err := a.resolveEvent(ctx, eventID)
			if err != nil {
				return err
			}

			opts := reschedule.Options{Mode: m, FitBlocks: fitBlocks, Gap: g}
			switch {
			case sessionID != 0:
				s, err := a.store.GetSession(ctx, sessionID)
				if err != nil {
					return err
				}
				if s.EventID != event.ID {
					return fmt.Errorf("session %d does not belong to event %d", s.ID, event.ID)
				}
				opts.Session = s
			case blockID != 0:
				b, err := a.store.GetSessionBlock(ctx, blockID)
				if err != nil {
					return err
				}
				if b.Entry != nil && b.Entry.EventID != event.ID {
					return fmt.Errorf("block %d does not belong to event %d", b.ID, event.ID)
				}
				opts.SessionBlock = b
				// a block only spans its own day
				if day == "" && b.Entry != nil {
					day = event.LocalDate(b.Entry.StartDt).Format(dateutil.DateLayout)
				}
			}

			opts.Day, err = a.resolveDay(ctx, event, day)
			if err != nil {
				return err
			}
			if b := opts.SessionBlock; b != nil && b.Entry != nil {
				if on := event.LocalDate(b.Entry.StartDt); !dateutil.SameDate(on, opts.Day) {
					return fmt.Errorf("block %d is scheduled on %s, not %s",
						b.ID, on.Format(dateutil.DateLayout), opts.Day.Format(dateutil.DateLayout))
				}
			}

			var store reschedule.Store = a.store
			if dryRun {
				store = reschedule.DryRun(a.store)
			}
			r, err := reschedule.New(event, store, opts)
			if err != nil {
				return err
			}
			debuglog.Event("RESCHEDULE", map[string]any{
				"event":      event.ID,
				"day":        opts.Day.Format(dateutil.DateLayout),
				"mode":       mode,
				"gap":        g.String(),
				"fit_blocks": fitBlocks,
				"dry_run":    dryRun,
			})
			if err := r.WithHooks(a.hooks).Run(ctx); err != nil {
				return err
			}

			entries, err := r.Entries(ctx)
			if err != nil {
				return err
			}
			printResult(cmd, view.DayTitle(event, opts.Day), r.Result(), g, dryRun)
			printEntries(cmd.OutOrStdout(), event, entries, r.Result().Changed)
			return nil
		},
	}

	cmd.Flags().Int64Var(&eventID, "event", 0, "Event ID")
	cmd.Flags().StringVar(&day, "day", "", "Day to reschedule (YYYY-MM-DD)")
	cmd.Flags().StringVar(&mode, "mode", a.config.Reschedule.Mode, "What to adjust: "+joinModes())
	cmd.Flags().StringVar(&gap, "gap", a.config.Reschedule.Gap, "Gap between entries, in minutes or as a duration")
	cmd.Flags().BoolVar(&fitBlocks, "fit-blocks", a.config.Reschedule.FitBlocks, "Resize session blocks to fit their contents first")
	cmd.Flags().Int64Var(&sessionID, "session", 0, "Only reschedule the blocks of this session")
	cmd.Flags().Int64Var(&blockID, "block", 0, "Only reschedule the entries inside this session block")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the result without saving it")
	cmd.MarkFlagsMutuallyExclusive("session", "block")

	return cmd
}

func printResult(cmd *cobra.Command, title string, res *reschedule.Result, gap time.Duration, dryRun bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== %s ===\n\n", formatHeader(title))

	verb := "Rescheduled"
	if dryRun {
		verb = "Would reschedule"
	}
	n := len(res.Changed)
	fmt.Fprintf(out, "%s %s of %d selected (%s mode, gap %s)\n\n",
		verb, formatStats(fmt.Sprintf("%d %s", n, plural(n, "entry", "entries"))), res.Entries,
		res.Mode, dateutil.FormatDuration(gap))
}

func joinModes() string {
	modes := reschedule.Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
