package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/coreos/go-systemd/v22/journal"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	base       *slog.Logger
	baseOnce   sync.Once
	levelVar   slog.LevelVar
	defaultOut io.Writer = os.Stderr
)

// initLogger sets up the process logger writing text lines to stderr. The
// level lives in levelVar and survives a handler swap.
func initLogger() {
	baseOnce.Do(func() {
		base = slog.New(slog.NewTextHandler(defaultOut, &slog.HandlerOptions{Level: &levelVar}))
	})
}

// SetOutput redirects all loggers to w, keeping the current level.
func SetOutput(w io.Writer) {
	defaultOut = w
	baseOnce = sync.Once{}
	initLogger()
}

// UseJournal switches all loggers to the systemd journal when the process
// runs under systemd. It reports whether the switch happened.
func UseJournal() bool {
	if !journal.Enabled() {
		return false
	}
	initLogger()
	base = slog.New(newJournalHandler(&levelVar))
	return true
}

func SetLevel(l Level) {
	initLogger()
	levelVar.Set(toSlog(l))
}

// ParseLevel maps "debug", "info", "warn" or "error" (any case) to a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "WARNING":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("log: unknown level %q", s)
	}
}

func toSlog(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	base.Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	base.Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger()
	base.Warn(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	base.Error(msg, extended...)
}

// Logger carries a fixed set of key/value pairs, e.g. the panel name.
type Logger struct {
	kv []any
}

// With returns a Logger that adds kv to every line.
func With(kv ...any) *Logger {
	return &Logger{kv: kv}
}

// With extends l with more pairs.
func (l *Logger) With(kv ...any) *Logger {
	merged := make([]any, 0, len(l.kv)+len(kv))
	merged = append(merged, l.kv...)
	return &Logger{kv: append(merged, kv...)}
}

func (l *Logger) Debug(msg string, kv ...any) { Debug(msg, l.merge(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { Info(msg, l.merge(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { Warn(msg, l.merge(kv)...) }

func (l *Logger) Error(msg string, err error, kv ...any) {
	Error(msg, err, l.merge(kv)...)
}

func (l *Logger) merge(kv []any) []any {
	if len(l.kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(l.kv)+len(kv))
	out = append(out, l.kv...)
	return append(out, kv...)
}
