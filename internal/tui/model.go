// Package tui provides the terminal user interface for agenda.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/hooks"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/timetable"
	"github.com/javiermolinar/agenda/internal/tui/commands"
	"github.com/javiermolinar/agenda/internal/tui/theme"
)

// gapStep is how much + and - change the gap.
const gapStep = 5 * time.Minute

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeGapInput
)

// Model is the main TUI model.
type Model struct {
	// Dependencies
	store  commands.Store
	hooks  *hooks.Registry
	event  *timetable.Event
	config *config.Config

	// Theme and styles
	theme  *theme.Theme
	styles *Styles

	// Day selection
	days   []time.Time
	dayIdx int
	want   time.Time // day requested before the days were loaded
	now    func() time.Time

	// Reschedule options
	mode      Mode
	resMode   reschedule.Mode
	fitBlocks bool
	gap       time.Duration

	// Loaded data
	loading    bool
	current    []*timetable.Entry
	preview    []*timetable.Entry
	result     *reschedule.Result
	previewErr error

	// Components
	gapInput textinput.Model

	// Terminal dimensions
	width  int
	height int

	// Messages
	statusMsg  string
	statusTime time.Time

	err error
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithDay selects the initial day instead of today or the first event day.
func WithDay(day time.Time) ModelOption {
	return func(m *Model) { m.want = dateutil.Date(day) }
}

// WithNow overrides the clock used to pick the initial day.
func WithNow(now func() time.Time) ModelOption {
	return func(m *Model) { m.now = now }
}

// New creates a new TUI model for one event.
func New(store commands.Store, reg *hooks.Registry, event *timetable.Event, cfg *config.Config, opts ...ModelOption) *Model {
	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load("mocha")
	}
	styles := NewStyles(t)

	gi := textinput.New()
	gi.Placeholder = "e.g. 10 or 1h15m"
	gi.CharLimit = 16
	gi.Width = 20
	gi.Prompt = "gap> "
	gi.PromptStyle = styles.PromptStyle
	gi.TextStyle = styles.StatusStyle

	m := &Model{
		store:     store,
		hooks:     reg,
		event:     event,
		config:    cfg,
		theme:     t,
		styles:    styles,
		now:       time.Now,
		mode:      ModeNormal,
		resMode:   cfg.Mode(),
		fitBlocks: cfg.Reschedule.FitBlocks,
		gap:       cfg.Gap(),
		gapInput:  gi,
		loading:   true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return commands.LoadDays(m.store, m.event)
}

// Run starts the TUI.
func Run(store commands.Store, reg *hooks.Registry, event *timetable.Event, cfg *config.Config, opts ...ModelOption) error {
	model := New(store, reg, event, cfg, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// Day returns the selected day, or the zero time before the days are loaded.
func (m Model) Day() time.Time {
	if len(m.days) == 0 {
		return time.Time{}
	}
	return m.days[m.dayIdx]
}

func (m Model) options() reschedule.Options {
	return reschedule.Options{
		Mode:      m.resMode,
		Day:       m.Day(),
		FitBlocks: m.fitBlocks,
		Gap:       m.gap,
	}
}

// initialDay picks the requested day, today, or the first day, in that order.
func (m Model) initialDay() int {
	if !m.want.IsZero() {
		if i := dayIndex(m.days, m.want); i >= 0 {
			return i
		}
	}
	today := m.event.LocalDate(m.now())
	if i := dayIndex(m.days, today); i >= 0 {
		return i
	}
	return 0
}

func dayIndex(days []time.Time, day time.Time) int {
	for i, d := range days {
		if dateutil.SameDate(d, day) {
			return i
		}
	}
	return -1
}

func (m *Model) loadDay() tea.Cmd {
	if len(m.days) == 0 {
		return nil
	}
	m.loading = true
	return commands.LoadDay(m.store, m.event, m.options())
}

func (m *Model) setStatus(msg string, d time.Duration) tea.Cmd {
	m.statusMsg = msg
	m.statusTime = time.Now().Add(d)
	return tea.Tick(d, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}
