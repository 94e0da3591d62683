package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case commands.DaysLoadedMsg:
		m.days = msg.Days
		m.dayIdx = m.initialDay()
		if len(m.days) == 0 {
			m.loading = false
			return m, nil
		}
		return m, m.loadDay()

	case commands.DayLoadedMsg:
		// drop stale loads after the day changed
		if len(m.days) > 0 && !dateutil.SameDate(msg.Day, m.Day()) {
			return m, nil
		}
		m.loading = false
		m.err = nil
		m.current = msg.Current
		m.preview = msg.Preview
		m.result = msg.Result
		m.previewErr = msg.PreviewErr
		debuglog.Entries("current", m.current)
		if m.previewErr != nil {
			debuglog.Error("preview", m.previewErr)
		} else {
			debuglog.Entries("preview", m.preview)
		}
		return m, nil

	case commands.AppliedMsg:
		n := len(msg.Result.Changed)
		debuglog.Event("APPLIED", map[string]any{"changed": n})
		status := m.setStatus(fmt.Sprintf("Rescheduled %d %s", n, plural(n, "entry", "entries")), 3*time.Second)
		return m, tea.Batch(status, m.loadDay())

	case commands.ErrMsg:
		m.loading = false
		m.err = msg.Err
		m.statusMsg = fmt.Sprintf("Error: %v", msg.Err)
		m.statusTime = time.Now().Add(5 * time.Second)
		return m, nil

	case commands.StatusMsgCmd:
		return m, m.setStatus(msg.Msg, 3*time.Second)

	case commands.ClearStatusMsg:
		if time.Now().After(m.statusTime) {
			m.statusMsg = ""
		}
		return m, nil
	}

	if m.mode == ModeGapInput {
		var cmd tea.Cmd
		m.gapInput, cmd = m.gapInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
