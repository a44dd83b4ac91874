package logging

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const DefaultBufferSize = 1000

// sink is shared by a logger and everything derived from it with With.
type sink struct {
	minLevel Level
	buffer   *LogBuffer
	fanout   fanout

	writeMu sync.Mutex
	output  io.Writer
}

// Logger writes logfmt lines. Every entry lands in the buffer; entries below
// the minimum level are kept out of the output and away from subscribers.
type Logger struct {
	sink   *sink
	fields map[string]string
}

func NewLogger(buffer *LogBuffer, minLevel Level) *Logger {
	return NewLoggerWithOutput(buffer, minLevel, os.Stderr)
}

// NewLoggerWithOutput is NewLogger writing to output. A nil buffer gets a
// default-sized one; a nil output discards lines.
func NewLoggerWithOutput(buffer *LogBuffer, minLevel Level, output io.Writer) *Logger {
	if buffer == nil {
		buffer = NewLogBuffer(DefaultBufferSize)
	}
	if output == nil {
		output = io.Discard
	}
	return &Logger{sink: &sink{
		minLevel: minLevel,
		buffer:   buffer,
		output:   output,
	}}
}

// Discard returns a logger that keeps a small buffer and writes nowhere.
func Discard() *Logger {
	return NewLoggerWithOutput(NewLogBuffer(64), LevelError, nil)
}

func (l *Logger) Buffer() *LogBuffer {
	if l == nil {
		return nil
	}
	return l.sink.buffer
}

// Subscribe streams entries at or above the minimum level until the returned
// func is called.
func (l *Logger) Subscribe() (<-chan LogEntry, func()) {
	if l == nil {
		return nil, func() {}
	}
	return l.sink.fanout.subscribe(0)
}

// With returns a logger adding fields to every entry.
func (l *Logger) With(fields map[string]string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sink: l.sink, fields: mergeFields(l.fields, fields)}
}

// Component tags every entry with the emitting subsystem.
func (l *Logger) Component(category string) *Logger {
	return l.With(map[string]string{FieldCategory: category})
}

func (l *Logger) Debug(message string, fields map[string]string) {
	l.log(LevelDebug, message, fields)
}

func (l *Logger) Info(message string, fields map[string]string) {
	l.log(LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]string) {
	l.log(LevelWarning, message, fields)
}

func (l *Logger) Error(message string, fields map[string]string) {
	l.log(LevelError, message, fields)
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.sink.minLevel
}

func (l *Logger) log(level Level, message string, fields map[string]string) {
	if l == nil {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Context:   mergeFields(l.fields, fields),
	}
	l.sink.buffer.Add(entry)
	if !l.Enabled(level) {
		return
	}
	l.sink.fanout.publish(entry)

	line := entry.Timestamp.Format(time.RFC3339) + " " + FormatEntry(entry) + "\n"
	l.sink.writeMu.Lock()
	_, _ = io.WriteString(l.sink.output, line)
	l.sink.writeMu.Unlock()
}

func mergeFields(base, extra map[string]string) map[string]string {
	if len(base)+len(extra) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(extra))
	for _, fields := range []map[string]string{base, extra} {
		for key, value := range fields {
			merged[key] = value
		}
	}
	return merged
}

// FormatEntry renders an entry as a logfmt line with fields sorted by key.
func FormatEntry(entry LogEntry) string {
	var line strings.Builder
	line.WriteString("level=" + entry.Level.String())
	line.WriteString(" msg=" + strconv.Quote(entry.Message))

	keys := make([]string, 0, len(entry.Context))
	for key := range entry.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		line.WriteString(" " + key + "=" + strconv.Quote(entry.Context[key]))
	}
	return line.String()
}
