package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/timetable"
	"github.com/javiermolinar/agenda/internal/tui/commands"
	"github.com/javiermolinar/agenda/internal/tui/view"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	debuglog.Key(msg.String())

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.mode == ModeGapInput {
		return m.handleGapKeys(msg)
	}
	return m.handleNormalKeys(msg)
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "h", "left":
		if m.dayIdx > 0 {
			m.dayIdx--
			return m, m.loadDay()
		}
	case "l", "right":
		if m.dayIdx < len(m.days)-1 {
			m.dayIdx++
			return m, m.loadDay()
		}

	case "m":
		m.resMode = nextMode(m.resMode)
		return m, m.loadDay()
	case "f":
		m.fitBlocks = !m.fitBlocks
		return m, m.loadDay()
	case "+", "=":
		m.gap += gapStep
		return m, m.loadDay()
	case "-":
		m.gap = max(m.gap-gapStep, 0)
		return m, m.loadDay()
	case "g":
		m.mode = ModeGapInput
		m.gapInput.SetValue(strconv.Itoa(int(m.gap / time.Minute)))
		m.gapInput.CursorEnd()
		return m, m.gapInput.Focus()
	case "r":
		return m, m.loadDay()

	case "enter":
		return m.apply()
	case "c":
		if len(m.days) == 0 {
			return m, nil
		}
		return m, commands.CopyText(view.PlainDay(m.event, m.Day(), m.previewOrCurrent()))
	}
	return m, nil
}

// handleGapKeys handles keys while a gap is typed.
func (m Model) handleGapKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.gapInput.Blur()
		return m, nil
	case "enter":
		gap, err := dateutil.ParseGap(strings.TrimSpace(m.gapInput.Value()))
		if err != nil {
			return m, m.setStatus(fmt.Sprintf("Error: %v", err), 5*time.Second)
		}
		m.gap = gap
		m.mode = ModeNormal
		m.gapInput.Blur()
		return m, m.loadDay()
	}

	var cmd tea.Cmd
	m.gapInput, cmd = m.gapInput.Update(msg)
	return m, cmd
}

// apply flushes the previewed reschedule.
func (m Model) apply() (tea.Model, tea.Cmd) {
	switch {
	case m.loading || len(m.days) == 0:
		return m, nil
	case m.previewErr != nil:
		return m, m.setStatus(fmt.Sprintf("Error: %v", m.previewErr), 5*time.Second)
	case m.result == nil || len(m.result.Changed) == 0:
		return m, m.setStatus("Nothing to change", 3*time.Second)
	}
	debuglog.Event("APPLY", map[string]any{
		"day":        m.Day().Format(dateutil.DateLayout),
		"mode":       string(m.resMode),
		"gap":        m.gap.String(),
		"fit_blocks": m.fitBlocks,
	})
	m.loading = true
	return m, commands.Apply(m.store, m.event, m.options(), m.hooks)
}

func (m Model) previewOrCurrent() []*timetable.Entry {
	if m.preview != nil {
		return m.preview
	}
	return m.current
}

func nextMode(mode reschedule.Mode) reschedule.Mode {
	modes := reschedule.Modes()
	i := slices.Index(modes, mode)
	return modes[(i+1)%len(modes)]
}
