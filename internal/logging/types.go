package logging

import (
	"fmt"
	"strings"
	"time"
)

// Level orders severities; a higher Level is more severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var levelNames = [...]string{"debug", "info", "warning", "error"}

func (level Level) String() string {
	if level < LevelDebug || level > LevelError {
		return fmt.Sprintf("level(%d)", int(level))
	}
	return levelNames[level]
}

func (level Level) MarshalText() ([]byte, error) {
	return []byte(level.String()), nil
}

// ParseLevel accepts the level names case-insensitively, plus "warn".
func ParseLevel(value string) (Level, bool) {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "warn" {
		return LevelWarning, true
	}
	for level, candidate := range levelNames {
		if candidate == name {
			return Level(level), true
		}
	}
	return LevelInfo, false
}

// LevelAtLeast reports whether level is at least as severe as minLevel.
func LevelAtLeast(level, minLevel Level) bool {
	return level >= minLevel
}

// Field keys shared by every dama component.
const (
	FieldCategory = "dama.category"
	FieldControl  = "dama.control"
	FieldError    = "error"
)

type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
}

// Category names the component that emitted the entry, if any.
func (entry LogEntry) Category() string {
	return entry.Context[FieldCategory]
}
