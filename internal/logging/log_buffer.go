package logging

import (
	"sync"

	"dama/internal/buffer"
)

// LogBuffer retains the newest entries for inspection by tests and the
// status line. It is safe for concurrent use.
type LogBuffer struct {
	mu      sync.Mutex
	entries *buffer.Ring[LogEntry]
}

func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{entries: buffer.NewRing[LogEntry](size)}
}

func (b *LogBuffer) Add(entry LogEntry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.entries.Add(entry)
	b.mu.Unlock()
}

// List returns the retained entries oldest first.
func (b *LogBuffer) List() []LogEntry {
	return b.Find(LevelDebug, "")
}

// Find returns the entries at or above minLevel whose message matches,
// oldest first. An empty message matches every entry.
func (b *LogBuffer) Find(minLevel Level, message string) []LogEntry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []LogEntry
	b.entries.Each(func(entry LogEntry) bool {
		if entry.Level >= minLevel && (message == "" || entry.Message == message) {
			matched = append(matched, entry)
		}
		return true
	})
	return matched
}

// Last returns the newest entry at or above minLevel.
func (b *LogBuffer) Last(minLevel Level) (LogEntry, bool) {
	if b == nil {
		return LogEntry{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var found LogEntry
	ok := false
	b.entries.NewestFirst(func(entry LogEntry) bool {
		found, ok = entry, entry.Level >= minLevel
		return !ok
	})
	if !ok {
		return LogEntry{}, false
	}
	return found, true
}
