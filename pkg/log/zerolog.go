package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	burnerrors "github.com/YuminosukeSato/burnrate/pkg/errors"
)

// ErrAttrKey is the field name under which errors are logged.
const ErrAttrKey = "error"

// Options configures the process-wide logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// File, when non-empty, receives a rotated copy of every record.
	File string
	// Console switches stderr output to zerolog's human readable writer.
	Console bool
	// Stderr overrides the console destination (tests).
	Stderr io.Writer
}

// ZerologLogger adapts zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

func (l *ZerologLogger) Debug(msg string, fields ...any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *ZerologLogger) Info(msg string, fields ...any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *ZerologLogger) Warn(msg string, fields ...any)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *ZerologLogger) Error(msg string, fields ...any) { l.emit(l.zl.Error(), msg, fields) }

// With implements Logger.With.
func (l *ZerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fmt.Sprint(fields[i]), fields[i+1])
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.zl.GetLevel() <= toZerologLevel(level)
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	// A leading error value is attached without a key.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			addError(ev, ErrAttrKey, err)
			fields = fields[1:]
		}
	}
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			ev = ev.Str("!BADKEY", key)
			break
		}
		switch v := fields[i+1].(type) {
		case error:
			addError(ev, key, v)
		case zerolog.LogObjectMarshaler:
			ev = ev.Object(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

func addError(ev *zerolog.Event, key string, err error) {
	ev.AnErr(key, err)
	if st := extractStacktrace(err); st != "" {
		ev.Str(StacktraceKey, st)
	}
	if m, ok := err.(zerolog.LogObjectMarshaler); ok {
		ev.EmbedObject(m)
	}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewZerologLogger(zerolog.New(os.Stderr).With().Timestamp().Logger())
)

// Setup builds the process-wide logger from opts and installs it. Library
// warnings raised through pkg/errors.Warn are routed to the same sink.
// The returned closer flushes the rotating file, if any.
func Setup(opts Options) (Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var console io.Writer = os.Stderr
	if opts.Stderr != nil {
		console = opts.Stderr
	}
	if opts.Console {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, errors.Wrapf(err, "create log directory for %s", opts.File)
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writers = append(writers, rotator)
		closer = rotator
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(toZerologLevel(level)).
		With().Timestamp().Str("service", "burnrate").
		Logger()
	logger := NewZerologLogger(zl)

	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()

	burnerrors.SetZerologWarnFunc(func(w error) {
		ev := zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})

	return logger, closer, nil
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger and returns the previous one.
func SetLogger(l Logger) Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := globalLogger
	globalLogger = l
	return prev
}

// Component is shorthand for GetLogger().With(ComponentKey, name).
func Component(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
