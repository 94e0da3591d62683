package view

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/agenda/internal/timetable"
)

func newEntry(t *testing.T, id int64, title string, start time.Time, d time.Duration) *timetable.Entry {
	t.Helper()
	e, err := timetable.NewEntry(1, timetable.EntryTypeContribution, title, start, d)
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	e.ID = id
	return e
}

func TestRows(t *testing.T) {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	lunch := newEntry(t, 1, "Lunch", start, time.Hour)
	talk := newEntry(t, 2, "Lightning", start.Add(10*time.Minute), 20*time.Minute)
	if err := lunch.AddChild(talk); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	coffee := newEntry(t, 3, "Coffee", start.Add(time.Hour), 15*time.Minute)

	rows := Rows([]*timetable.Entry{lunch, coffee}, []*timetable.Entry{talk})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	want := []struct {
		title   string
		depth   int
		changed bool
	}{
		{"Lunch", 0, false},
		{"Lightning", 1, true},
		{"Coffee", 0, false},
	}
	for i, w := range want {
		r := rows[i]
		if r.Entry.Title != w.title || r.Depth != w.depth || r.Changed != w.changed {
			t.Errorf("row %d = {%s %d %t}, want %v", i, r.Entry.Title, r.Depth, r.Changed, w)
		}
	}
}

func TestLine(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Skip("tzdata not available")
	}
	e := newEntry(t, 1, "Talk", time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), 90*time.Minute)

	got := Line(Row{Entry: e, Depth: 1}, zurich)
	want := "10:00-11:30    Talk (1h30m)"
	if got != want {
		t.Errorf("Line = %q, want %q", got, want)
	}
}

func TestPlainDay(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	event, err := timetable.NewEvent("Summer School", "UTC", start, start.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}

	tests := []struct {
		name    string
		entries []*timetable.Entry
		want    []string
	}{
		{
			name: "empty day",
			want: []string{"Summer School, Monday 2 June 2025 (UTC)", "No entries scheduled."},
		},
		{
			name:    "with entries",
			entries: []*timetable.Entry{newEntry(t, 1, "Welcome", start.Add(9*time.Hour), 30*time.Minute)},
			want:    []string{"09:00-09:30  Welcome (30m)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := PlainDay(event, start, tt.entries)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := Truncate("Opening keynote", 8); lipgloss.Width(got) != 8 || !strings.HasSuffix(got, "…") {
		t.Errorf("Truncate = %q, want 8 cells ending in an ellipsis", got)
	}
	if got := Truncate("short", 8); got != "short" {
		t.Errorf("Truncate should keep short strings, got %q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Errorf("Truncate to zero width = %q", got)
	}
	if got := Pad("ab", 5); got != "ab   " {
		t.Errorf("Pad = %q", got)
	}
}

func TestRenderFooter(t *testing.T) {
	state := FooterViewState{
		InnerW:      40,
		FooterH:     3,
		OptionsLine: "mode: time",
		StatusLine:  "ready",
		HelpLine:    "q quit",
	}
	out := RenderFooter(state)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if lipgloss.Width(l) != 40 {
			t.Errorf("line %q should be padded to 40 cells", l)
		}
	}

	state.FooterH = 0
	if RenderFooter(state) != "" {
		t.Error("zero height footer should render nothing")
	}
}
