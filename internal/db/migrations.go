package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT NOT NULL,
			timezone    TEXT NOT NULL,
			start_dt    TEXT NOT NULL,
			end_dt      TEXT NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id  INTEGER NOT NULL REFERENCES events(id),
			title     TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS session_blocks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  INTEGER NOT NULL REFERENCES sessions(id),
			title       TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS timetable_entries (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id          INTEGER NOT NULL REFERENCES events(id),
			parent_id         INTEGER REFERENCES timetable_entries(id),
			session_block_id  INTEGER UNIQUE REFERENCES session_blocks(id),
			type              TEXT NOT NULL CHECK(type IN ('session_block', 'contribution', 'break')),
			title             TEXT NOT NULL,
			start_dt          TEXT NOT NULL,
			duration_seconds  INTEGER NOT NULL CHECK(duration_seconds > 0)
		);

		CREATE INDEX IF NOT EXISTS idx_entries_event_start ON timetable_entries(event_id, start_dt);
		CREATE INDEX IF NOT EXISTS idx_entries_parent ON timetable_entries(parent_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating timetable tables: %w", err)
	}

	return nil
}
