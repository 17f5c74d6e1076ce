package logger

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogMessage is one captured log call
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// TestLogger captures log calls in memory so tests can assert on them.
// Loggers derived with WithField(s)/WithError write into the same buffer.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) root() *entry { return &entry{sink: l} }

func (l *TestLogger) Debug(msg string) { l.root().Debug(msg) }
func (l *TestLogger) Info(msg string)  { l.root().Info(msg) }
func (l *TestLogger) Warn(msg string)  { l.root().Warn(msg) }
func (l *TestLogger) Error(msg string) { l.root().Error(msg) }
func (l *TestLogger) Fatal(msg string) { l.root().Fatal(msg) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.root().WithField(key, value)
}
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l.root().WithFields(fields)
}
func (l *TestLogger) WithError(err error) Logger             { return l.root().WithError(err) }
func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) DebugWithFields(msg string, f map[string]interface{}) {
	l.root().DebugWithFields(msg, f)
}
func (l *TestLogger) InfoWithFields(msg string, f map[string]interface{}) {
	l.root().InfoWithFields(msg, f)
}
func (l *TestLogger) WarnWithFields(msg string, f map[string]interface{}) {
	l.root().WarnWithFields(msg, f)
}
func (l *TestLogger) ErrorWithFields(msg string, f map[string]interface{}) {
	l.root().ErrorWithFields(msg, f)
}
func (l *TestLogger) FatalWithFields(msg string, f map[string]interface{}) {
	l.root().FatalWithFields(msg, f)
}

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	z := zerolog.Nop()
	return &z
}

func (l *TestLogger) record(m LogMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
}

// GetMessages returns a copy of every captured message
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage reports whether a message with exactly this text was logged
func (l *TestLogger) HasMessage(text string) bool {
	return l.Find(text) != nil
}

// Find returns the first message with exactly this text, or nil
func (l *TestLogger) Find(text string) *LogMessage {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			m := msg
			return &m
		}
	}
	return nil
}

// HasError reports whether anything was logged at ERROR level
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear drops all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}

// String renders the captured messages one per line
func (l *TestLogger) String() string {
	var b strings.Builder
	for _, m := range l.GetMessages() {
		b.WriteString("[" + m.Level + "] " + m.Message)
		if m.Error != nil {
			b.WriteString(" error=" + m.Error.Error())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// entry is a derived test logger carrying fields and an error.
type entry struct {
	sink   *TestLogger
	fields map[string]interface{}
	err    error
}

func (e *entry) with(fields map[string]interface{}, err error) *entry {
	merged := make(map[string]interface{}, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	if err == nil {
		err = e.err
	}
	return &entry{sink: e.sink, fields: merged, err: err}
}

func (e *entry) emit(level, msg string, fields map[string]interface{}) {
	full := e.with(fields, nil)
	e.sink.record(LogMessage{Level: level, Message: msg, Fields: full.fields, Error: full.err})
}

func (e *entry) Debug(msg string) { e.emit("DEBUG", msg, nil) }
func (e *entry) Info(msg string)  { e.emit("INFO", msg, nil) }
func (e *entry) Warn(msg string)  { e.emit("WARN", msg, nil) }
func (e *entry) Error(msg string) { e.emit("ERROR", msg, nil) }
func (e *entry) Fatal(msg string) { e.emit("FATAL", msg, nil) }

func (e *entry) WithField(key string, value interface{}) Logger {
	return e.with(map[string]interface{}{key: value}, nil)
}
func (e *entry) WithFields(fields map[string]interface{}) Logger { return e.with(fields, nil) }
func (e *entry) WithError(err error) Logger                      { return e.with(nil, err) }
func (e *entry) WithContext(ctx context.Context) Logger          { return e }

func (e *entry) DebugWithFields(msg string, f map[string]interface{}) { e.emit("DEBUG", msg, f) }
func (e *entry) InfoWithFields(msg string, f map[string]interface{})  { e.emit("INFO", msg, f) }
func (e *entry) WarnWithFields(msg string, f map[string]interface{})  { e.emit("WARN", msg, f) }
func (e *entry) ErrorWithFields(msg string, f map[string]interface{}) { e.emit("ERROR", msg, f) }
func (e *entry) FatalWithFields(msg string, f map[string]interface{}) { e.emit("FATAL", msg, f) }

func (e *entry) GetZerolog() *zerolog.Logger { return e.sink.GetZerolog() }
