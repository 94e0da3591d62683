// Package debuglog writes JSON-lines debug traces when --debug is set.
package debuglog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/agenda/internal/timetable"
)

// DefaultPath is the fixed path for debug logs.
const DefaultPath = "agenda-debug.log"

// Logger writes structured debug entries to a file.
type Logger struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	enabled bool
	seq     int
}

// Global debug logger instance
var debugLog *Logger

// Init initializes the debug logger if debug mode is enabled.
// An empty path falls back to DefaultPath in the current directory.
func Init(enabled bool, path string) error {
	if !enabled {
		debugLog = &Logger{enabled: false}
		return nil
	}
	if path == "" {
		path = DefaultPath
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating debug log: %w", err)
	}

	debugLog = &Logger{
		w:       f,
		closer:  f,
		enabled: true,
	}

	debugLog.log("DEBUG_START", map[string]any{
		"log_file": path,
		"time":     time.Now().Format(time.RFC3339),
	})

	return nil
}

// SetOutput routes debug entries to w. Intended for tests.
func SetOutput(w io.Writer) {
	debugLog = &Logger{w: w, enabled: true}
}

// Enabled reports whether debug logging is active.
func Enabled() bool {
	return debugLog != nil && debugLog.enabled
}

// Close closes the debug log file.
func Close() {
	if debugLog == nil || !debugLog.enabled {
		return
	}
	debugLog.log("DEBUG_END", map[string]any{
		"time": time.Now().Format(time.RFC3339),
	})
	if debugLog.closer != nil {
		_ = debugLog.closer.Close()
	}
	debugLog = nil
}

// log writes a structured log entry.
func (d *Logger) log(event string, data map[string]any) {
	if d == nil || !d.enabled || d.w == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	entry := map[string]any{
		"seq":   d.seq,
		"ts":    time.Now().Format("15:04:05.000"),
		"event": event,
	}
	for k, v := range data {
		entry[k] = v
	}

	b, _ := json.Marshal(entry)
	_, _ = fmt.Fprintf(d.w, "%s\n", b)
}

// Event logs a named event with arbitrary fields.
func Event(name string, data map[string]any) {
	if !Enabled() {
		return
	}
	debugLog.log(name, data)
}

// Key logs a key press.
func Key(key string) {
	if !Enabled() {
		return
	}
	debugLog.log("KEY_PRESS", map[string]any{"key": key})
}

// Entries logs the spans of a set of entry trees.
func Entries(action string, entries []*timetable.Entry) {
	if !Enabled() {
		return
	}

	spans := make([]map[string]any, 0, len(entries))
	timetable.Walk(entries, func(e *timetable.Entry) bool {
		span := map[string]any{
			"id":       e.ID,
			"title":    truncate(e.Title, 30),
			"start":    e.StartDt.Format(time.RFC3339),
			"duration": e.Duration.String(),
			"dirty":    e.Dirty(),
		}
		if e.ParentID != nil {
			span["parent"] = *e.ParentID
		}
		spans = append(spans, span)
		return true
	})

	debugLog.log("ENTRIES", map[string]any{
		"action":  action,
		"entries": spans,
	})
}

// Error logs an error.
func Error(context string, err error) {
	if !Enabled() || err == nil {
		return
	}
	debugLog.log("ERROR", map[string]any{
		"context": context,
		"error":   err.Error(),
	})
}

// truncate shortens s to max cells, keeping escape sequences intact.
func truncate(s string, max int) string {
	return ansi.Truncate(s, max, "...")
}
