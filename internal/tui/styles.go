package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/agenda/internal/timetable"
	"github.com/javiermolinar/agenda/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	colorBg      lipgloss.Color
	colorFgMuted lipgloss.Color

	TitleStyle  lipgloss.Style
	HeaderStyle lipgloss.Style
	DayStyle    lipgloss.Style

	TimeStyle         lipgloss.Style
	BlockStyle        lipgloss.Style
	ContributionStyle lipgloss.Style
	BreakStyle        lipgloss.Style
	NestedStyle       lipgloss.Style
	ChangedStyle      lipgloss.Style

	ColumnStyle   lipgloss.Style
	OptionStyle   lipgloss.Style
	OptionOnStyle lipgloss.Style
	PromptStyle   lipgloss.Style
	StatusStyle   lipgloss.Style
	WarningStyle  lipgloss.Style
	HelpStyle     lipgloss.Style
	AppStyle      lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{
		colorBg:      p.Bg,
		colorFgMuted: p.FgMuted,
	}

	base := lipgloss.NewStyle().Foreground(p.Fg).Background(p.Bg)

	s.TitleStyle = base.Bold(true).Foreground(p.Accent)
	s.HeaderStyle = base.Bold(true).Foreground(p.Fg).Underline(true)
	s.DayStyle = base.Foreground(p.FgMuted)

	s.TimeStyle = base.Foreground(p.FgMuted)
	s.BlockStyle = base.Bold(true).Foreground(p.Block).Background(p.BlockBg)
	s.ContributionStyle = base.Foreground(p.Contribution)
	s.BreakStyle = base.Italic(true).Foreground(p.Break)
	s.NestedStyle = base.Foreground(p.FgMuted)
	s.ChangedStyle = base.Bold(true).Foreground(p.TextOnChanged).Background(p.Changed)

	s.ColumnStyle = base.Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.BgSelection).
		BorderBackground(p.Bg)

	s.OptionStyle = base.Foreground(p.FgMuted)
	s.OptionOnStyle = base.Bold(true).Foreground(p.TextOnAccent).Background(p.Accent).Padding(0, 1)
	s.PromptStyle = base.Foreground(p.Accent)
	s.StatusStyle = base.Foreground(p.Fg)
	s.WarningStyle = base.Bold(true).Foreground(p.TextOnWarning).Background(p.Warning)
	s.HelpStyle = base.Foreground(p.FgMuted)
	s.AppStyle = base.Padding(0, 1)

	return s
}

// entryStyle picks the style for an entry row.
func (s *Styles) entryStyle(e *timetable.Entry, depth int, changed bool) lipgloss.Style {
	switch {
	case changed:
		return s.ChangedStyle
	case e.Type == timetable.EntryTypeSessionBlock:
		return s.BlockStyle
	case e.Type == timetable.EntryTypeBreak:
		return s.BreakStyle
	case depth > 0:
		return s.NestedStyle
	default:
		return s.ContributionStyle
	}
}
