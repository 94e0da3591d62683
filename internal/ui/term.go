package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/agenda/internal/timetable"
)

// Color definitions for consistent styling across the UI.
var (
	// Session blocks: bold cyan, they frame the entries inside them
	colorBlock = color.New(color.FgCyan, color.Bold)

	// Breaks: dim so talks stand out
	colorBreak = color.New(color.FgWhite, color.Faint)

	// Entries a reschedule moved or resized
	colorChanged = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Counts and confirmations
	colorStats = color.New(color.FgGreen)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// formatEntry colors a title by entry type.
func formatEntry(e *timetable.Entry, s string) string {
	switch e.Type {
	case timetable.EntryTypeSessionBlock:
		return colorBlock.Sprint(s)
	case timetable.EntryTypeBreak:
		return colorBreak.Sprint(s)
	default:
		return s
	}
}

// formatChanged formats text for entries changed by a reschedule.
func formatChanged(s string) string {
	return colorChanged.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatStats formats text for statistics.
func formatStats(s string) string {
	return colorStats.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
