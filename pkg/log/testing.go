package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"sync"
)

// TestLogger records every entry as one JSON line in memory.
// Loggers derived through With share the parent's buffer and lock, so
// records emitted from concurrent tree fits are never interleaved.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	trainer := training.NewTrainer(cfg, training.WithLogger(logger))
//	...
//	assert.True(t, logger.ContainsMessage("best model selected"))
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  Level
	fields map[string]any
}

// NewTestLogger returns a logger that keeps entries at or above level, and
// the buffer they are written to.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		mu:     &sync.Mutex{},
		buffer: buffer,
		level:  level,
		fields: map[string]any{},
	}, buffer
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.write(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.write(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.write(LevelError, msg, fields) }

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	child := &TestLogger{
		mu:     t.mu,
		buffer: t.buffer,
		level:  t.level,
		fields: maps.Clone(t.fields),
	}
	addPairs(child.fields, fields)
	return child
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) write(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := maps.Clone(t.fields)
	entry["level"] = level.String()
	entry["message"] = msg

	// 先頭の error はキーなしで "error" に入る（ZerologLogger と同じ規約）
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			entry[ErrAttrKey] = err.Error()
			fields = fields[1:]
		}
	}
	addPairs(entry, fields)

	line, _ := json.Marshal(entry)
	t.mu.Lock()
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
	t.mu.Unlock()
}

// addPairs stores alternating key/value fields into m. Error values are
// stored as their message; a dangling key is dropped.
func addPairs(m map[string]any, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			m[key] = err.Error()
			continue
		}
		m[key] = fields[i+1]
	}
}

// String returns everything captured so far.
func (t *TestLogger) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffer.String()
}

// Entries decodes the captured JSON lines.
func (t *TestLogger) Entries() ([]map[string]any, error) {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(t.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured line contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.String(), message)
}

// ContainsField reports whether some entry has key set to value. Values are
// compared after a JSON round trip, so numbers are float64.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.Entries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	t.buffer.Reset()
	t.mu.Unlock()
}
