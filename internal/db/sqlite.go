// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/timetable"
)

// timestampLayout keeps stored instants lexically ordered: always UTC, second precision.
const timestampLayout = "2006-01-02T15:04:05Z"

// SQLite implements timetable.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateEvent adds a new event to the repository.
func (s *SQLite) CreateEvent(ctx context.Context, e *timetable.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO events (title, timezone, start_dt, end_dt, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		e.Title,
		e.Timezone,
		formatTimestamp(e.StartDt),
		formatTimestamp(e.EndDt),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	e.ID = id

	return nil
}

// GetEvent retrieves an event by ID.
func (s *SQLite) GetEvent(ctx context.Context, id int64) (*timetable.Event, error) {
	query := `
		SELECT id, title, timezone, start_dt, end_dt, created_at
		FROM events
		WHERE id = ?
	`
	e, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", timetable.ErrEventNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return e, nil
}

// ListEvents returns all events ordered by start.
func (s *SQLite) ListEvents(ctx context.Context) ([]*timetable.Event, error) {
	query := `
		SELECT id, title, timezone, start_dt, end_dt, created_at
		FROM events
		ORDER BY start_dt, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*timetable.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// CreateSession adds a new session to an event.
func (s *SQLite) CreateSession(ctx context.Context, session *timetable.Session) error {
	if strings.TrimSpace(session.Title) == "" {
		return timetable.ErrEmptyTitle
	}
	if _, err := s.GetEvent(ctx, session.EventID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (event_id, title) VALUES (?, ?)`,
		session.EventID, session.Title,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	session.ID = id
	return nil
}

// GetSession retrieves a session with its blocks and their entry trees.
func (s *SQLite) GetSession(ctx context.Context, id int64) (*timetable.Session, error) {
	var session timetable.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, event_id, title FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.EventID, &session.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", timetable.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, title FROM session_blocks WHERE session_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying session blocks: %w", err)
	}
	for rows.Next() {
		var b timetable.SessionBlock
		if err := rows.Scan(&b.ID, &b.SessionID, &b.Title); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning session block: %w", err)
		}
		session.Blocks = append(session.Blocks, &b)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("closing rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session blocks: %w", err)
	}

	for _, b := range session.Blocks {
		if b.Entry, err = s.blockEntry(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return &session, nil
}

// CreateSessionBlock adds a block to a session.
func (s *SQLite) CreateSessionBlock(ctx context.Context, block *timetable.SessionBlock) error {
	if strings.TrimSpace(block.Title) == "" {
		return timetable.ErrEmptyTitle
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, block.SessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", timetable.ErrSessionNotFound, block.SessionID)
	}
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO session_blocks (session_id, title) VALUES (?, ?)`,
		block.SessionID, block.Title,
	)
	if err != nil {
		return fmt.Errorf("inserting session block: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	block.ID = id
	return nil
}

// GetSessionBlock retrieves a block with its entry tree.
func (s *SQLite) GetSessionBlock(ctx context.Context, id int64) (*timetable.SessionBlock, error) {
	var b timetable.SessionBlock
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, title FROM session_blocks WHERE id = ?`, id,
	).Scan(&b.ID, &b.SessionID, &b.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", timetable.ErrBlockNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session block: %w", err)
	}

	if b.Entry, err = s.blockEntry(ctx, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// blockEntry loads the entry tree of a block, or nil if the block is unscheduled.
func (s *SQLite) blockEntry(ctx context.Context, blockID int64) (*timetable.Entry, error) {
	entries, err := queryEntries(ctx, s.db, `WHERE session_block_id = ?`, blockID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	if err := loadDescendants(ctx, s.db, entries); err != nil {
		return nil, err
	}
	return entries[0], nil
}

// CreateEntry adds a timetable entry.
// Child entries must lie within their parent (ErrNotContained). Session block
// entries must be top-level and a block can be scheduled only once.
func (s *SQLite) CreateEntry(ctx context.Context, e *timetable.Entry) error {
	if _, err := timetable.ParseEntryType(string(e.Type)); err != nil {
		return err
	}
	if e.Duration <= 0 {
		return timetable.ErrInvalidDuration
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if e.ParentID != nil {
		if e.IsSessionBlock() {
			return timetable.ErrNestedBlock
		}
		parents, err := queryEntries(ctx, tx, `WHERE id = ?`, *e.ParentID)
		if err != nil {
			return err
		}
		if len(parents) == 0 {
			return fmt.Errorf("%w: parent %d", timetable.ErrEntryNotFound, *e.ParentID)
		}
		parent := parents[0]
		if parent.EventID != e.EventID {
			return fmt.Errorf("%w: parent %d belongs to another event", timetable.ErrEntryNotFound, parent.ID)
		}
		if !parent.Contains(e) {
			return fmt.Errorf("%w: %q (%s-%s) is outside %q (%s-%s)",
				timetable.ErrNotContained,
				e.Title, e.StartDt.Format("15:04"), e.EndDt().Format("15:04"),
				parent.Title, parent.StartDt.Format("15:04"), parent.EndDt().Format("15:04"),
			)
		}
	}

	if e.SessionBlockID != nil {
		var taken int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM timetable_entries WHERE session_block_id = ?`, *e.SessionBlockID,
		).Scan(&taken)
		switch {
		case err == nil:
			return fmt.Errorf("%w: block %d (entry #%d)", timetable.ErrBlockScheduled, *e.SessionBlockID, taken)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking session block: %w", err)
		}
	}

	query := `
		INSERT INTO timetable_entries (
			event_id, parent_id, session_block_id, type, title, start_dt, duration_seconds
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		e.EventID,
		e.ParentID,
		e.SessionBlockID,
		e.Type,
		e.Title,
		formatTimestamp(e.StartDt),
		int64(e.Duration/time.Second),
	)
	if err != nil {
		return fmt.Errorf("inserting entry %q: %w", e.Title, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	e.ID = id
	for _, c := range e.Children {
		c.ParentID = &e.ID
	}
	e.MarkClean()
	return nil
}

// GetEntry retrieves an entry with its children.
func (s *SQLite) GetEntry(ctx context.Context, id int64) (*timetable.Entry, error) {
	entries, err := queryEntries(ctx, s.db, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %d", timetable.ErrEntryNotFound, id)
	}
	if err := loadDescendants(ctx, s.db, entries); err != nil {
		return nil, err
	}
	return entries[0], nil
}

// ListTopLevelEntries returns the entries without a parent whose start lies in
// [from, to), ordered by start, with their children loaded.
func (s *SQLite) ListTopLevelEntries(ctx context.Context, eventID int64, from, to time.Time) ([]*timetable.Entry, error) {
	entries, err := queryEntries(ctx, s.db,
		`WHERE event_id = ? AND parent_id IS NULL AND start_dt >= ? AND start_dt < ?`,
		eventID, formatTimestamp(from), formatTimestamp(to),
	)
	if err != nil {
		return nil, err
	}
	if err := loadDescendants(ctx, s.db, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListEventDays returns the distinct event-local days that have top-level entries.
func (s *SQLite) ListEventDays(ctx context.Context, eventID int64, loc *time.Location) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_dt FROM timetable_entries WHERE event_id = ? AND parent_id IS NULL ORDER BY start_dt`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying entry days: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var days []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning start: %w", err)
		}
		start, err := parseTimestamp(raw)
		if err != nil {
			return nil, err
		}
		day := dateutil.LocalDate(start, loc)
		if len(days) == 0 || !days[len(days)-1].Equal(day) {
			days = append(days, day)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry days: %w", err)
	}
	return days, nil
}

// Flush writes every dirty entry of the given trees in a single transaction.
// Entries are marked clean only once the transaction has committed.
func (s *SQLite) Flush(ctx context.Context, entries []*timetable.Entry) error {
	var dirty []*timetable.Entry
	timetable.Walk(entries, func(e *timetable.Entry) bool {
		if e.Dirty() {
			dirty = append(dirty, e)
		}
		return true
	})
	if len(dirty) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE timetable_entries SET start_dt = ?, duration_seconds = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range dirty {
		result, err := stmt.ExecContext(ctx, formatTimestamp(e.StartDt), int64(e.Duration/time.Second), e.ID)
		if err != nil {
			return fmt.Errorf("updating entry %d: %w", e.ID, err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("%w: %d", timetable.ErrEntryNotFound, e.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	for _, e := range dirty {
		e.MarkClean()
	}
	return nil
}

// queryEntries selects entries matching where, ordered by start.
func queryEntries(ctx context.Context, q querier, where string, args ...any) ([]*timetable.Entry, error) {
	query := `
		SELECT id, event_id, parent_id, session_block_id, type, title, start_dt, duration_seconds
		FROM timetable_entries
		` + where + `
		ORDER BY start_dt, id
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*timetable.Entry
	for rows.Next() {
		var (
			e         timetable.Entry
			parentID  sql.NullInt64
			blockID   sql.NullInt64
			startDt   string
			durationS int64
		)
		if err := rows.Scan(&e.ID, &e.EventID, &parentID, &blockID, &e.Type, &e.Title, &startDt, &durationS); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		e.StartDt, err = parseTimestamp(startDt)
		if err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationS) * time.Second
		if parentID.Valid {
			e.ParentID = &parentID.Int64
		}
		if blockID.Valid {
			e.SessionBlockID = &blockID.Int64
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

// loadDescendants attaches every descendant of roots, one tree level per query.
func loadDescendants(ctx context.Context, q querier, roots []*timetable.Entry) error {
	level := roots
	for len(level) > 0 {
		byID := make(map[int64]*timetable.Entry, len(level))
		placeholders := make([]string, len(level))
		args := make([]any, len(level))
		for i, e := range level {
			byID[e.ID] = e
			placeholders[i] = "?"
			args[i] = e.ID
		}

		children, err := queryEntries(ctx, q,
			`WHERE parent_id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
		if err != nil {
			return fmt.Errorf("loading children: %w", err)
		}

		// children come ordered by start, so appending keeps each list sorted
		for _, c := range children {
			parent := byID[*c.ParentID]
			c.Parent = parent
			parent.Children = append(parent.Children, c)
		}
		level = children
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*timetable.Event, error) {
	var (
		e         timetable.Event
		startDt   string
		endDt     string
		createdAt string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Timezone, &startDt, &endDt, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if e.StartDt, err = parseTimestamp(startDt); err != nil {
		return nil, err
	}
	if e.EndDt, err = parseTimestamp(endDt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseDate(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}
	return &e, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// parseDate parses a date string in the various formats SQLite might return.
func parseDate(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
