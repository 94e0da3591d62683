package reschedule

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/agenda/internal/hooks"
	"github.com/javiermolinar/agenda/internal/timetable"
)

// fakeStore serves a fixed set of top-level entries and records flushes.
type fakeStore struct {
	entries  []*timetable.Entry
	flushed  int
	flushErr error
	from, to time.Time
}

func (s *fakeStore) ListTopLevelEntries(_ context.Context, _ int64, from, to time.Time) ([]*timetable.Entry, error) {
	s.from, s.to = from, to
	var out []*timetable.Entry
	for _, e := range s.entries {
		if !e.StartDt.Before(from) && e.StartDt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) Flush(_ context.Context, entries []*timetable.Entry) error {
	if s.flushErr != nil {
		return s.flushErr
	}
	s.flushed++
	timetable.Walk(entries, func(e *timetable.Entry) bool {
		e.MarkClean()
		return true
	})
	return nil
}

var testDay = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC)
}

func newEvent(t *testing.T) *timetable.Event {
	t.Helper()
	ev, err := timetable.NewEvent("Summit", "UTC", at(9, 0), at(18, 0).AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	ev.ID = 1
	return ev
}

var nextID int64

func entry(t *testing.T, typ timetable.EntryType, title string, start time.Time, d time.Duration) *timetable.Entry {
	t.Helper()
	e, err := timetable.NewEntry(1, typ, title, start, d)
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	nextID++
	e.ID = nextID
	return e
}

func contribution(t *testing.T, title string, start time.Time, d time.Duration) *timetable.Entry {
	return entry(t, timetable.EntryTypeContribution, title, start, d)
}

func block(t *testing.T, title string, start time.Time, d time.Duration, children ...*timetable.Entry) *timetable.Entry {
	t.Helper()
	b := entry(t, timetable.EntryTypeSessionBlock, title, start, d)
	for _, c := range children {
		if err := b.AddChild(c); err != nil {
			t.Fatalf("AddChild failed: %v", err)
		}
	}
	return b
}

// abc returns the A/B/C example day: A 09:00-09:30, B 09:45-10:00, C 10:15-10:45.
func abc(t *testing.T) (a, b, c *timetable.Entry) {
	a = contribution(t, "A", at(9, 0), 30*time.Minute)
	b = contribution(t, "B", at(9, 45), 15*time.Minute)
	c = contribution(t, "C", at(10, 15), 30*time.Minute)
	return a, b, c
}

func run(t *testing.T, store Store, opts Options) *Rescheduler {
	t.Helper()
	r, err := New(newEvent(t), store, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return r
}

func assertSpan(t *testing.T, e *timetable.Entry, start, end time.Time) {
	t.Helper()
	if !e.StartDt.Equal(start) || !e.EndDt().Equal(end) {
		t.Errorf("%s: got %s-%s, want %s-%s", e.Title,
			e.StartDt.Format("15:04"), e.EndDt().Format("15:04"),
			start.Format("15:04"), end.Format("15:04"))
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}
	if _, err := ParseMode("shuffle"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	ev := newEvent(t)

	if _, err := New(ev, &fakeStore{}, Options{Mode: "bogus"}); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
	if _, err := New(ev, &fakeStore{}, Options{Mode: ModeTime, Gap: -time.Minute}); !errors.Is(err, ErrNegativeGap) {
		t.Errorf("expected ErrNegativeGap, got %v", err)
	}
	for _, gap := range []time.Duration{500 * time.Millisecond, 90 * time.Second} {
		if _, err := New(ev, &fakeStore{}, Options{Mode: ModeTime, Gap: gap}); !errors.Is(err, ErrPartialGap) {
			t.Errorf("gap %s: expected ErrPartialGap, got %v", gap, err)
		}
	}
	unscheduled := &timetable.SessionBlock{ID: 7}
	if _, err := New(ev, &fakeStore{}, Options{Mode: ModeTime, SessionBlock: unscheduled}); !errors.Is(err, timetable.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestNew_SessionAndBlockPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when both session and session block are given")
		}
	}()
	b := block(t, "Block", at(9, 0), time.Hour)
	_, _ = New(newEvent(t), &fakeStore{}, Options{
		Mode:         ModeTime,
		Session:      &timetable.Session{ID: 1},
		SessionBlock: &timetable.SessionBlock{ID: 1, Entry: b},
	})
}

func TestTimeMode_Example(t *testing.T) {
	a, b, c := abc(t)
	store := &fakeStore{entries: []*timetable.Entry{c, a, b}}

	run(t, store, Options{Mode: ModeTime, Day: testDay})

	assertSpan(t, a, at(9, 0), at(9, 30))
	assertSpan(t, b, at(9, 30), at(9, 45))
	assertSpan(t, c, at(9, 45), at(10, 15))
	if store.flushed != 1 {
		t.Errorf("expected one flush, got %d", store.flushed)
	}
}

func TestTimeMode_ContiguousWithGap(t *testing.T) {
	entries := []*timetable.Entry{
		contribution(t, "1", at(10, 0), 20*time.Minute),
		contribution(t, "2", at(11, 0), 45*time.Minute),
		contribution(t, "3", at(13, 0), 10*time.Minute),
		contribution(t, "4", at(15, 30), 60*time.Minute),
	}
	durations := make([]time.Duration, len(entries))
	for i, e := range entries {
		durations[i] = e.Duration
	}
	gap := 5 * time.Minute

	run(t, &fakeStore{entries: entries}, Options{Mode: ModeTime, Day: testDay, Gap: gap})

	if !entries[0].StartDt.Equal(at(9, 0)) {
		t.Errorf("first entry should start at the event day start, got %v", entries[0].StartDt)
	}
	for i := range entries {
		if entries[i].Duration != durations[i] {
			t.Errorf("entry %d duration changed: %v -> %v", i, durations[i], entries[i].Duration)
		}
		if i+1 < len(entries) && !entries[i+1].StartDt.Equal(entries[i].EndDt().Add(gap)) {
			t.Errorf("entry %d starts at %v, want %v", i+1, entries[i+1].StartDt, entries[i].EndDt().Add(gap))
		}
	}
}

func TestTimeMode_MovesChildrenWithBlock(t *testing.T) {
	talk := contribution(t, "Talk", at(10, 30), 30*time.Minute)
	b := block(t, "Block", at(10, 0), 2*time.Hour, talk)

	run(t, &fakeStore{entries: []*timetable.Entry{b}}, Options{Mode: ModeTime, Day: testDay})

	assertSpan(t, b, at(9, 0), at(11, 0))
	assertSpan(t, talk, at(9, 30), at(10, 0))
}

func TestTimeMode_UsesEventTimezone(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Skipf("timezone unavailable: %v", err)
	}
	ev, err := timetable.NewEvent("Summit", "Europe/Zurich",
		time.Date(2025, 6, 2, 8, 30, 0, 0, zurich), time.Date(2025, 6, 3, 18, 0, 0, 0, zurich))
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	// 23:30 UTC on June 1st is already June 2nd in Zurich
	early := contribution(t, "Early", time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC), 30*time.Minute)
	late := contribution(t, "Late", at(12, 0), 30*time.Minute)
	store := &fakeStore{entries: []*timetable.Entry{early, late}}

	r, err := New(ev, store, Options{Mode: ModeTime, Day: testDay})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 08:30 in Zurich during summer time is 06:30 UTC
	assertSpan(t, early, at(6, 30), at(7, 0))
	assertSpan(t, late, at(7, 0), at(7, 30))
	if !store.from.Equal(time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)) {
		t.Errorf("query should start at local midnight, got %v", store.from)
	}
}

func TestTimeMode_SessionBlockScope(t *testing.T) {
	t1 := contribution(t, "T1", at(10, 15), 20*time.Minute)
	t2 := contribution(t, "T2", at(11, 0), 30*time.Minute)
	b := block(t, "Block", at(10, 0), 2*time.Hour, t2, t1)
	other := contribution(t, "Other", at(14, 0), 30*time.Minute)
	store := &fakeStore{entries: []*timetable.Entry{b, other}}

	run(t, store, Options{
		Mode:         ModeTime,
		Day:          testDay,
		Gap:          10 * time.Minute,
		SessionBlock: &timetable.SessionBlock{ID: 1, Entry: b},
	})

	assertSpan(t, t1, at(10, 0), at(10, 20))
	assertSpan(t, t2, at(10, 30), at(11, 0))
	assertSpan(t, b, at(10, 0), at(12, 0))
	assertSpan(t, other, at(14, 0), at(14, 30))
}

func TestSessionBlockScope_WrongDayPanics(t *testing.T) {
	t1 := contribution(t, "T1", at(10, 15), 20*time.Minute)
	b := block(t, "Block", at(10, 0), 2*time.Hour, t1)

	r, err := New(newEvent(t), &fakeStore{}, Options{
		Mode:         ModeTime,
		Day:          testDay.AddDate(0, 0, 1),
		SessionBlock: &timetable.SessionBlock{ID: 1, Entry: b},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for an entry outside the requested day")
		}
	}()
	_ = r.Run(context.Background())
}

func TestSessionScope_SelectsScheduledBlocksOnDay(t *testing.T) {
	morning := block(t, "Morning", at(10, 0), time.Hour)
	afternoon := block(t, "Afternoon", at(14, 0), time.Hour)
	tomorrow := block(t, "Tomorrow", at(10, 0).AddDate(0, 0, 1), time.Hour)
	session := &timetable.Session{
		ID: 1,
		Blocks: []*timetable.SessionBlock{
			{ID: 1, Entry: afternoon},
			{ID: 2, Entry: tomorrow},
			{ID: 3},
			{ID: 4, Entry: morning},
		},
	}
	unrelated := contribution(t, "Unrelated", at(9, 0), 30*time.Minute)

	r := run(t, &fakeStore{entries: []*timetable.Entry{unrelated}}, Options{
		Mode:    ModeTime,
		Day:     testDay,
		Session: session,
	})

	selected, _ := r.Entries(context.Background())
	if len(selected) != 2 || selected[0] != morning || selected[1] != afternoon {
		t.Fatalf("unexpected selection: %v", selected)
	}
	assertSpan(t, morning, at(9, 0), at(10, 0))
	assertSpan(t, afternoon, at(10, 0), at(11, 0))
	assertSpan(t, tomorrow, at(10, 0).AddDate(0, 0, 1), at(11, 0).AddDate(0, 0, 1))
	assertSpan(t, unrelated, at(9, 0), at(9, 30))
}

func TestTopLevelScope_IgnoresNestedAndOtherDays(t *testing.T) {
	nested := contribution(t, "Nested", at(10, 0), 30*time.Minute)
	b := block(t, "Block", at(10, 0), time.Hour, nested)
	nextDay := contribution(t, "Next day", at(9, 0).AddDate(0, 0, 1), 30*time.Minute)
	store := &fakeStore{entries: []*timetable.Entry{b, nested, nextDay}}

	r := run(t, store, Options{Mode: ModeNone, Day: testDay})

	selected, _ := r.Entries(context.Background())
	if len(selected) != 1 || selected[0] != b {
		t.Errorf("expected only the top-level block, got %v", selected)
	}
}

func TestEntries_Memoized(t *testing.T) {
	a, b, _ := abc(t)
	store := &fakeStore{entries: []*timetable.Entry{a, b}}
	r, err := New(newEvent(t), store, Options{Mode: ModeNone, Day: testDay})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, _ := r.Entries(context.Background())
	store.entries = nil
	second, _ := r.Entries(context.Background())

	if len(first) != 2 || len(second) != 2 || first[0] != second[0] {
		t.Error("selection should be computed once")
	}
}

func TestDurationMode_Example(t *testing.T) {
	a, b, c := abc(t)

	run(t, &fakeStore{entries: []*timetable.Entry{a, b, c}}, Options{Mode: ModeDuration, Day: testDay})

	if a.Duration != 45*time.Minute {
		t.Errorf("A duration = %v, want 45m", a.Duration)
	}
	if b.Duration != 30*time.Minute {
		t.Errorf("B duration = %v, want 30m", b.Duration)
	}
	if c.Duration != 30*time.Minute {
		t.Errorf("C duration = %v, want unchanged 30m", c.Duration)
	}
	assertSpan(t, a, at(9, 0), at(9, 45))
	assertSpan(t, b, at(9, 45), at(10, 15))
	assertSpan(t, c, at(10, 15), at(10, 45))
}

func TestDurationMode_GapKeepsStarts(t *testing.T) {
	a, b, c := abc(t)
	gap := 5 * time.Minute

	run(t, &fakeStore{entries: []*timetable.Entry{a, b, c}}, Options{Mode: ModeDuration, Day: testDay, Gap: gap})

	entries := []*timetable.Entry{a, b, c}
	starts := []time.Time{at(9, 0), at(9, 45), at(10, 15)}
	for i, e := range entries {
		if !e.StartDt.Equal(starts[i]) {
			t.Errorf("%s start changed to %v", e.Title, e.StartDt)
		}
		if i+1 < len(entries) && !e.EndDt().Add(gap).Equal(entries[i+1].StartDt) {
			t.Errorf("%s ends at %v, want %v", e.Title, e.EndDt(), entries[i+1].StartDt.Add(-gap))
		}
	}
}

func TestDurationMode_GapTooLargeChangesNothing(t *testing.T) {
	a, b, c := abc(t)
	store := &fakeStore{entries: []*timetable.Entry{a, b, c}}

	r, err := New(newEvent(t), store, Options{Mode: ModeDuration, Day: testDay, Gap: 30 * time.Minute})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	err = r.Run(context.Background())

	if !errors.Is(err, ErrGapTooLarge) {
		t.Fatalf("expected ErrGapTooLarge, got %v", err)
	}
	if !strings.Contains(err.Error(), `"B"`) {
		t.Errorf("error should name the offending entry: %v", err)
	}
	if !strings.Contains(err.Error(), "the minimum is 1m0s") {
		t.Errorf("error should state the minimum duration: %v", err)
	}
	// A could have been shortened to 15m but validation comes first
	if a.Duration != 30*time.Minute || a.Dirty() {
		t.Errorf("A must stay untouched, got %v", a.Duration)
	}
	if store.flushed != 0 {
		t.Error("nothing should be flushed on failure")
	}
	if r.Result() != nil {
		t.Error("failed run should not produce a result")
	}
}

func TestDurationMode_ZeroDurationFails(t *testing.T) {
	a := contribution(t, "A", at(9, 0), 30*time.Minute)
	b := contribution(t, "B", at(9, 0), 30*time.Minute)

	r, _ := New(newEvent(t), &fakeStore{entries: []*timetable.Entry{a, b}}, Options{Mode: ModeDuration, Day: testDay})
	if err := r.Run(context.Background()); !errors.Is(err, ErrGapTooLarge) {
		t.Errorf("expected ErrGapTooLarge for a zero duration, got %v", err)
	}
}

func TestDurationMode_SingleEntryUntouched(t *testing.T) {
	a := contribution(t, "A", at(9, 0), 30*time.Minute)

	run(t, &fakeStore{entries: []*timetable.Entry{a}}, Options{Mode: ModeDuration, Day: testDay})

	if a.Duration != 30*time.Minute {
		t.Errorf("single entry duration changed to %v", a.Duration)
	}
}

func TestFitBlocks(t *testing.T) {
	c1 := contribution(t, "C1", at(10, 15), 30*time.Minute)
	c2 := contribution(t, "C2", at(11, 0), 45*time.Minute)
	fitted := block(t, "Fitted", at(10, 0), 3*time.Hour, c2, c1)
	empty := block(t, "Empty", at(14, 0), time.Hour)

	run(t, &fakeStore{entries: []*timetable.Entry{fitted, empty}}, Options{Mode: ModeNone, Day: testDay, FitBlocks: true})

	assertSpan(t, fitted, at(10, 15), at(11, 45))
	assertSpan(t, empty, at(14, 0), at(15, 0))
	if !c1.StartDt.Equal(at(10, 15)) {
		t.Error("fitting must not move children")
	}
}

func TestFitBlocksBeforeTimeMode(t *testing.T) {
	c1 := contribution(t, "C1", at(10, 30), 30*time.Minute)
	b := block(t, "Block", at(10, 0), 2*time.Hour, c1)
	after := contribution(t, "After", at(13, 0), 15*time.Minute)

	run(t, &fakeStore{entries: []*timetable.Entry{b, after}}, Options{Mode: ModeTime, Day: testDay, FitBlocks: true})

	// The fitted block lasts 30 minutes, so the next entry follows at 09:30
	assertSpan(t, b, at(9, 0), at(9, 30))
	assertSpan(t, c1, at(9, 0), at(9, 30))
	assertSpan(t, after, at(9, 30), at(9, 45))
}

func TestRun_ResultAndHooks(t *testing.T) {
	a, b, c := abc(t)
	reg := hooks.New()
	var seen *Result
	reg.Register(HookDone, func(_ context.Context, args map[string]any) (string, error) {
		seen = args["result"].(*Result)
		return "", nil
	})

	r, err := New(newEvent(t), &fakeStore{entries: []*timetable.Entry{a, b, c}}, Options{Mode: ModeTime, Day: testDay})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := r.WithHooks(reg).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	res := r.Result()
	if res == nil || seen != res {
		t.Fatal("hook should receive the run result")
	}
	if res.Entries != 3 {
		t.Errorf("Entries = %d, want 3", res.Entries)
	}
	// A already starts at 09:00
	if len(res.Changed) != 2 {
		t.Errorf("Changed = %d, want 2", len(res.Changed))
	}
}

func TestRun_HookErrorDoesNotFailCommittedRun(t *testing.T) {
	a, b, _ := abc(t)
	store := &fakeStore{entries: []*timetable.Entry{a, b}}
	reg := hooks.New()
	reg.Register(HookDone, func(context.Context, map[string]any) (string, error) {
		return "", errors.New("log disk full")
	})

	r, err := New(newEvent(t), store, Options{Mode: ModeTime, Day: testDay})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := r.WithHooks(reg).Run(context.Background()); err != nil {
		t.Fatalf("Run should succeed once flushed, got %v", err)
	}
	if store.flushed != 1 {
		t.Errorf("flushed = %d, want 1", store.flushed)
	}
	if r.Result() == nil || len(r.Result().Changed) != 1 {
		t.Errorf("result should report the committed move of B")
	}
	assertSpan(t, b, at(9, 30), at(9, 45))
}

func TestRun_FlushError(t *testing.T) {
	a, _, _ := abc(t)
	boom := errors.New("disk full")
	r, _ := New(newEvent(t), &fakeStore{entries: []*timetable.Entry{a}, flushErr: boom}, Options{Mode: ModeTime, Day: testDay})

	if err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected flush error, got %v", err)
	}
}

func TestDryRun(t *testing.T) {
	a, b, _ := abc(t)
	store := &fakeStore{entries: []*timetable.Entry{a, b}}

	r := run(t, DryRun(store), Options{Mode: ModeTime, Day: testDay, Gap: 0})

	if store.flushed != 0 {
		t.Error("dry run must not flush")
	}
	if !b.Dirty() {
		t.Error("entries keep their staged changes in a dry run")
	}
	if len(r.Result().Changed) != 1 {
		t.Errorf("expected B to be reported as changed")
	}
}
