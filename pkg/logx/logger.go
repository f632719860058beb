package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// Fields is structured context attached to a log entry.
type Fields map[string]any

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Logger writes leveled, optionally structured log lines.
type Logger struct {
	mu       sync.Mutex
	level    Level
	format   Format
	out      io.Writer
	exitFunc func(int)
}

// NewLogger creates a logger with the given minimum level and format.
func NewLogger(level Level, format Format, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		level:    level,
		format:   format,
		out:      out,
		exitFunc: os.Exit,
	}
}

// NewLoggerFromEnv builds a logger from LOG_LEVEL and LOG_FORMAT.
func NewLoggerFromEnv() *Logger {
	format := FormatConsole
	if os.Getenv("LOG_FORMAT") == "json" {
		format = FormatJSON
	}
	return NewLogger(ParseLevel(os.Getenv("LOG_LEVEL")), format, os.Stdout)
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetOutput changes the destination writer.
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	l.out = out
	l.mu.Unlock()
}

// WithFields starts an entry with structured fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// WithField starts an entry with a single field.
func (l *Logger) WithField(key string, value any) *Entry {
	return l.WithFields(Fields{key: value})
}

// WithError starts an entry carrying an error field.
func (l *Logger) WithError(err error) *Entry {
	return l.WithFields(Fields{"error": fmt.Sprint(err)})
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	now := time.Now()
	switch l.format {
	case FormatJSON:
		payload := make(map[string]any, len(fields)+3)
		for k, v := range fields {
			payload[k] = v
		}
		payload["time"] = now.Format(time.RFC3339Nano)
		payload["level"] = level.String()
		payload["message"] = msg
		b, err := json.Marshal(payload)
		if err != nil {
			b = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), msg))
		}
		fmt.Fprintln(l.out, string(b))
	default:
		fmt.Fprintf(l.out, "%s [%s] %s%s\n",
			now.Format("2006-01-02 15:04:05"), level.String(), msg, formatFields(fields))
	}
}

func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := " |"
	for _, k := range keys {
		s += fmt.Sprintf(" %s=%v", k, fields[k])
	}
	return s
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) { l.log(LevelDebug, msg, nil) }

// Info logs at info level.
func (l *Logger) Info(msg string) { l.log(LevelInfo, msg, nil) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string) { l.log(LevelWarn, msg, nil) }

// Error logs at error level.
func (l *Logger) Error(msg string) { l.log(LevelError, msg, nil) }

// Fatal logs at fatal level and exits.
func (l *Logger) Fatal(msg string) {
	l.log(LevelFatal, msg, nil)
	l.exitFunc(1)
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, fmt.Sprintf(format, args...), nil) }

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) { l.log(LevelInfo, fmt.Sprintf(format, args...), nil) }

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.log(LevelWarn, fmt.Sprintf(format, args...), nil) }

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, fmt.Sprintf(format, args...), nil) }

// Fatalf logs a formatted message at fatal level and exits.
func (l *Logger) Fatalf(format string, args ...any) {
	l.log(LevelFatal, fmt.Sprintf(format, args...), nil)
	l.exitFunc(1)
}
