package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/db"
	"github.com/javiermolinar/agenda/internal/reschedule"
)

const fixturePath = "../fixture/testdata/summer-school.yaml"

type testEnv struct {
	store *db.SQLite
	dir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if _, err := time.LoadLocation("Europe/Zurich"); err != nil {
		t.Skip("tzdata not available")
	}
	DisableColor()
	dir := t.TempDir()
	store, err := db.New(filepath.Join(dir, "agenda.db"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &testEnv{store: store, dir: dir}
}

// run executes one command line on a fresh App sharing the env store.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(e.dir, "agenda.db")

	app := NewApp(e.store, cfg)
	app.configPath = filepath.Join(e.dir, "config.toml")
	app.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	app.root.SetOut(&buf)
	app.root.SetErr(&buf)
	app.root.SetArgs(args)
	err := app.root.ExecuteContext(context.Background())
	return buf.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("agenda %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestImportEventsDays(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "import", fixturePath)
	assertContains(t, out, `Imported event "Summer School" with id 1`)

	out = env.mustRun(t, "events")
	assertContains(t, out, "Summer School", "2025-06-02 09:00 to 2025-06-06 18:00 (Europe/Zurich)")

	out = env.mustRun(t, "days")
	assertContains(t, out, "2025-06-02  Monday     4 entries", "2025-06-03  Tuesday    1 entry")
}

func TestImport_Errors(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "import", filepath.Join(env.dir, "missing.yaml")); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := env.run(t, "import", env.dir); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Errorf("directory error = %v", err)
	}
}

func TestShow(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", fixturePath)

	out := env.mustRun(t, "show")
	assertContains(t, out,
		"Summer School, Monday 2 June 2025 (Europe/Zurich)",
		"09:00-09:30  Welcome (30m)",
		"10:00-12:00  Morning (2h)",
		"10:45-11:30    Trigger upgrade (45m)",
		"13:15-13:35    Lightning talks (20m)",
	)

	out = env.mustRun(t, "show", "--day", "2025-06-05")
	assertContains(t, out, "No entries scheduled.")

	if _, err := env.run(t, "show", "--day", "05/06/2025"); err == nil {
		t.Error("expected an invalid date error")
	}
}

func TestReschedule(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", fixturePath)

	out := env.mustRun(t, "reschedule", "--day", "2025-06-02", "--mode", "time", "--dry-run")
	assertContains(t, out, "Would reschedule 6 entries of 4 selected (time mode, gap 0m)", "09:30-11:30  Morning")

	out = env.mustRun(t, "show", "--day", "2025-06-02")
	assertContains(t, out, "10:00-12:00  Morning")

	out = env.mustRun(t, "reschedule", "--day", "2025-06-02", "--mode", "time", "--gap", "5")
	assertContains(t, out, "Rescheduled 6 entries of 4 selected (time mode, gap 5m)")

	out = env.mustRun(t, "show", "--day", "2025-06-02")
	assertContains(t, out,
		"09:00-09:30  Welcome",
		"09:35-11:35  Morning",
		"09:35-10:05    Detector calibration",
		"11:40-11:55  Coffee",
		"12:00-13:15  Lunch",
		"12:30-12:50    Lightning talks",
	)
}

func TestReschedule_Block(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", fixturePath)

	out := env.mustRun(t, "reschedule", "--block", "1", "--mode", "time", "--gap", "5m")
	assertContains(t, out, "Rescheduled 1 entry of 2 selected", "10:35-11:20  Trigger upgrade")

	out = env.mustRun(t, "reschedule", "--block", "1", "--mode", "none", "--fit-blocks")
	assertContains(t, out, "Rescheduled 0 entries of 2 selected")
}

func TestReschedule_Session(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", fixturePath)

	// Parallel A has one scheduled block on the first day
	out := env.mustRun(t, "reschedule", "--session", "1", "--day", "2025-06-02", "--mode", "none", "--fit-blocks")
	assertContains(t, out, "Rescheduled 1 entry of 1 selected", "10:00-11:30  Morning")
}

func TestReschedule_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", fixturePath)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "gap too large",
			args:    []string{"reschedule", "--day", "2025-06-02", "--mode", "duration", "--gap", "2h"},
			wantErr: reschedule.ErrGapTooLarge,
		},
		{
			name:    "invalid mode",
			args:    []string{"reschedule", "--mode", "sideways"},
			wantErr: reschedule.ErrInvalidMode,
		},
		{
			name:    "session and block",
			args:    []string{"reschedule", "--session", "1", "--block", "1"},
			wantMsg: "none of the others can be",
		},
		{
			name:    "block on another day",
			args:    []string{"reschedule", "--block", "1", "--day", "2025-06-03", "--mode", "time"},
			wantMsg: "block 1 is scheduled on 2025-06-02, not 2025-06-03",
		},
		{
			name:    "gap below a minute",
			args:    []string{"reschedule", "--day", "2025-06-02", "--mode", "time", "--gap", "500ms"},
			wantErr: dateutil.ErrInvalidGap,
		},
		{
			name:    "unscheduled block",
			args:    []string{"reschedule", "--block", "2"},
			wantMsg: "not scheduled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}

	// nothing was written by the failed duration run
	out := env.mustRun(t, "show", "--day", "2025-06-02")
	assertContains(t, out, "09:00-09:30  Welcome", "10:00-12:00  Morning")
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "import", fixturePath)

	out := env.mustRun(t, "export", "--day", "2025-06-02")
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 7 {
		t.Errorf("VEVENT count = %d, want 7", got)
	}
	assertContains(t, out, "BEGIN:VCALENDAR", "SUMMARY:Lightning talks")

	path := filepath.Join(env.dir, "all.ics")
	out = env.mustRun(t, "export", "--all", "--ics", path)
	assertContains(t, out, "Exported 8 entries to "+path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	assertContains(t, string(data), "SUMMARY:Poster session")
}

func TestResolveEvent(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "show"); !errors.Is(err, ErrNoEvents) {
		t.Errorf("err = %v, want ErrNoEvents", err)
	}

	env.mustRun(t, "import", fixturePath)
	env.mustRun(t, "import", fixturePath)

	if _, err := env.run(t, "show"); !errors.Is(err, ErrAmbiguousEvent) {
		t.Errorf("err = %v, want ErrAmbiguousEvent", err)
	}
	out := env.mustRun(t, "show", "--event", "2")
	assertContains(t, out, "Welcome")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "version")
	assertContains(t, out, "agenda dev (commit: none)")
}

func TestConfigInteractive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	// mode, gap, fit blocks, db path, theme (invalid then valid), event
	input := "y\nduration\n10\ny\n\nneon\nlatte\n3\n"
	var out bytes.Buffer
	if err := runConfigInteractive(strings.NewReader(input), &out, path); err != nil {
		t.Fatalf("runConfigInteractive failed: %v\n%s", err, out.String())
	}
	assertContains(t, out.String(), "Created "+path, `unknown theme "neon"`, "Configuration saved!")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Reschedule.Mode != "duration" || cfg.Reschedule.Gap != "10" || !cfg.Reschedule.FitBlocks {
		t.Errorf("reschedule config = %+v", cfg.Reschedule)
	}
	if cfg.UI.Theme != "latte" || cfg.UI.Event != 3 {
		t.Errorf("ui config = %+v", cfg.UI)
	}
}
