// Package testutil provides common test utilities for the planning service.
package testutil

import (
	"sync"

	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
)

// LogMessage represents a single log entry captured by RecordingLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for i := len(m.Fields) - 1; i >= 0; i-- {
		if m.Fields[i].Key == key {
			return m.Fields[i].Value, true
		}
	}
	return nil, false
}

type logStore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// RecordingLogger implements logging.Logger for tests.  Children created by
// With and Named write to the same store as their parent.
type RecordingLogger struct {
	store  *logStore
	name   string
	fields []logging.Field
}

var _ logging.Logger = (*RecordingLogger)(nil)

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{store: &logStore{}}
}

func (l *RecordingLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.messages = append(l.store.messages, LogMessage{
		Level:   level,
		Logger:  l.name,
		Message: msg,
		Fields:  all,
	})
}

func (l *RecordingLogger) Debug(msg string, fields ...logging.Field) { l.log("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...logging.Field)  { l.log("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...logging.Field)  { l.log("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...logging.Field) { l.log("error", msg, fields) }
func (l *RecordingLogger) Fatal(msg string, fields ...logging.Field) { l.log("fatal", msg, fields) }

func (l *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	merged := make([]logging.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &RecordingLogger{store: l.store, name: l.name, fields: merged}
}

func (l *RecordingLogger) Named(name string) logging.Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &RecordingLogger{store: l.store, name: full, fields: l.fields}
}

// Messages returns a copy of all logged messages.
func (l *RecordingLogger) Messages() []LogMessage {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	out := make([]LogMessage, len(l.store.messages))
	copy(out, l.store.messages)
	return out
}

// Clear removes all logged messages.
func (l *RecordingLogger) Clear() {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.messages = l.store.messages[:0]
}

// Find returns the first message with the given level and text.
func (l *RecordingLogger) Find(level, msg string) (LogMessage, bool) {
	for _, m := range l.Messages() {
		if m.Level == level && m.Message == msg {
			return m, true
		}
	}
	return LogMessage{}, false
}

// HasMessage checks if a message with the given level and content was logged.
func (l *RecordingLogger) HasMessage(level, msg string) bool {
	_, ok := l.Find(level, msg)
	return ok
}
