package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/timetable"
	"github.com/javiermolinar/agenda/internal/tui/view"
)

const (
	headerH = 2
	footerH = 4
	// columnChrome is the border plus padding width of a column.
	columnChrome = 4
)

// View renders the TUI.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}
	innerW := m.width - 2
	bodyH := m.height - headerH - footerH
	if innerW < 30 || bodyH < 3 {
		return "Terminal too small"
	}

	header := view.PlaceBox(innerW, headerH, lipgloss.Top, m.renderHeader(innerW), m.styles.colorBg)
	body := m.renderBody(innerW, bodyH)
	footer := view.RenderFooter(view.FooterViewState{
		InnerW:      innerW,
		FooterH:     footerH,
		OptionsLine: m.renderOptions(),
		PromptLine:  m.renderPrompt(),
		StatusLine:  m.renderStatus(),
		HelpLine:    m.renderHelp(innerW),
		VAlign:      lipgloss.Bottom,
		Bg:          m.styles.colorBg,
	})

	content := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	app := m.styles.AppStyle.Render(content)
	return view.PadLinesWithBackground(app, m.width, m.height, m.styles.colorBg)
}

func (m Model) renderHeader(width int) string {
	title := m.styles.TitleStyle.Render(view.Truncate(m.event.Title, width/2))
	if len(m.days) == 0 {
		if m.loading {
			return title
		}
		return title + m.styles.DayStyle.Render("  no scheduled days")
	}
	day := fmt.Sprintf("  %s  (day %d/%d, %s)",
		m.Day().Format("Monday 2 January 2006"), m.dayIdx+1, len(m.days), m.event.Location())
	return title + m.styles.DayStyle.Render(view.Truncate(day, width-lipgloss.Width(title)))
}

func (m Model) renderBody(width, height int) string {
	colW := width/2 - columnChrome
	rowsH := height - 2 // column borders

	var changed []*timetable.Entry
	if m.result != nil {
		changed = m.result.Changed
	}

	left := m.renderColumn("Current", view.Rows(m.current, nil), colW, rowsH)
	var right string
	if m.previewErr != nil {
		msg := m.styles.WarningStyle.Render(view.Truncate(m.previewErr.Error(), colW))
		right = m.renderColumnContent("Preview", []string{msg}, colW, rowsH)
	} else {
		right = m.renderColumn("Preview", view.Rows(m.preview, changed), colW, rowsH)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderColumn(title string, rows []view.Row, width, height int) string {
	loc := m.event.Location()
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, m.renderRow(r, loc, width))
	}
	if len(lines) == 0 && !m.loading {
		lines = append(lines, m.styles.HelpStyle.Render("No entries"))
	}
	return m.renderColumnContent(title, lines, width, height)
}

func (m Model) renderColumnContent(title string, lines []string, width, height int) string {
	out := []string{m.styles.HeaderStyle.Render(title)}
	for _, l := range lines {
		if len(out) == height {
			out[len(out)-1] = m.styles.HelpStyle.Render("…")
			break
		}
		out = append(out, l)
	}
	content := view.PadLinesWithBackground(strings.Join(out, "\n"), width, height, m.styles.colorBg)
	return m.styles.ColumnStyle.Render(content)
}

func (m Model) renderRow(r view.Row, loc *time.Location, width int) string {
	times := view.TimeRange(r.Entry, loc) + " "
	dur := " " + dateutil.FormatDuration(r.Entry.Duration)
	labelW := width - lipgloss.Width(times) - lipgloss.Width(dur)
	label := view.Pad(view.Truncate(view.Label(r), labelW), labelW)

	style := m.styles.entryStyle(r.Entry, r.Depth, r.Changed)
	return m.styles.TimeStyle.Render(times) + style.Render(label) + m.styles.TimeStyle.Render(dur)
}

func (m Model) renderOptions() string {
	var b strings.Builder
	b.WriteString(m.styles.OptionStyle.Render("mode "))
	for _, mode := range reschedule.Modes() {
		if mode == m.resMode {
			b.WriteString(m.styles.OptionOnStyle.Render(string(mode)))
		} else {
			b.WriteString(m.styles.OptionStyle.Render(" " + string(mode) + " "))
		}
	}
	fit := "off"
	if m.fitBlocks {
		fit = "on"
	}
	b.WriteString(m.styles.OptionStyle.Render(fmt.Sprintf("   fit blocks %s   gap %s", fit, dateutil.FormatDuration(m.gap))))
	if m.result != nil && m.previewErr == nil {
		n := len(m.result.Changed)
		b.WriteString(m.styles.OptionStyle.Render(fmt.Sprintf("   %d %s to change", n, plural(n, "entry", "entries"))))
	}
	return b.String()
}

func (m Model) renderPrompt() string {
	if m.mode != ModeGapInput {
		return ""
	}
	return m.gapInput.View()
}

func (m Model) renderStatus() string {
	switch {
	case strings.HasPrefix(m.statusMsg, "Error:"):
		return m.styles.WarningStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		return m.styles.StatusStyle.Render(m.statusMsg)
	case m.loading:
		return m.styles.HelpStyle.Render("Loading...")
	}
	return ""
}

func (m Model) renderHelp(width int) string {
	help := "h/l day  m mode  f fit  +/- gap  g set gap  enter apply  c copy  q quit"
	if m.mode == ModeGapInput {
		help = "enter set gap  esc cancel"
	}
	return m.styles.HelpStyle.Render(view.Truncate(help, width))
}
