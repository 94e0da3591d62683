package timetable

import (
	"context"
	"time"
)

// Repository defines the storage interface for event timetables.
type Repository interface {
	// CreateEvent adds a new event to the repository.
	CreateEvent(ctx context.Context, event *Event) error

	// GetEvent retrieves an event by ID.
	// Returns ErrEventNotFound if it does not exist.
	GetEvent(ctx context.Context, id int64) (*Event, error)

	// ListEvents returns all events ordered by start.
	ListEvents(ctx context.Context) ([]*Event, error)

	// CreateSession adds a new session to an event.
	CreateSession(ctx context.Context, session *Session) error

	// GetSession retrieves a session with its blocks and their entry trees.
	GetSession(ctx context.Context, id int64) (*Session, error)

	// CreateSessionBlock adds a block to a session.
	CreateSessionBlock(ctx context.Context, block *SessionBlock) error

	// GetSessionBlock retrieves a block with its entry tree.
	GetSessionBlock(ctx context.Context, id int64) (*SessionBlock, error)

	// CreateEntry adds a timetable entry. Child entries must be contained in their parent.
	CreateEntry(ctx context.Context, entry *Entry) error

	// GetEntry retrieves an entry with its children.
	GetEntry(ctx context.Context, id int64) (*Entry, error)

	// ListTopLevelEntries returns the entries without a parent whose start lies in
	// [from, to), ordered by start, with their children loaded.
	ListTopLevelEntries(ctx context.Context, eventID int64, from, to time.Time) ([]*Entry, error)

	// Flush writes every dirty entry in the given trees in a single transaction.
	Flush(ctx context.Context, entries []*Entry) error

	// Close releases any resources held by the repository.
	Close() error
}
