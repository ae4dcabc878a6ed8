package vstbridge

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// LogLevel is the verbosity passed to the worker on its command line
type LogLevel int

const (
	LogQuiet LogLevel = iota // Nothing
	LogError                 // Failures only
	LogTrace                 // Lifecycle events
	LogDebug                 // Protocol details
	LogFlood                 // Every forwarded call
)

// Additional slog levels used by the bridge
const (
	LevelFlood = slog.LevelDebug - 4
	levelOff   = slog.LevelError + 4
)

// Valid reports whether l is one of the defined levels
func (l LogLevel) Valid() bool {
	return l >= LogQuiet && l <= LogFlood
}

// Level maps l onto a slog threshold.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogQuiet:
		return levelOff
	case LogError:
		return slog.LevelError
	case LogTrace:
		return slog.LevelInfo
	case LogDebug:
		return slog.LevelDebug
	case LogFlood:
		return LevelFlood
	}
	return slog.LevelInfo
}

func (l LogLevel) String() string {
	switch l {
	case LogQuiet:
		return "quiet"
	case LogError:
		return "error"
	case LogTrace:
		return "trace"
	case LogDebug:
		return "debug"
	case LogFlood:
		return "flood"
	}
	return "LogLevel(" + strconv.Itoa(int(l)) + ")"
}

// NewLogger returns a text logger writing to w at the given level. Every
// record carries the base name of the plugin as its sender.
func NewLogger(w io.Writer, level LogLevel, pluginPath string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level.Level(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelFlood {
					return slog.String(slog.LevelKey, "FLOOD")
				}
			}
			return a
		},
	})
	return slog.New(h).With("sender", filepath.Base(pluginPath))
}

// OpenLogSink opens the log destination named on the worker command line.
// An empty path or "-" selects standard error.
func OpenLogSink(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stderr}, nil
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// discardLogger is used when no logger is configured.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// flood logs at LevelFlood.
func flood(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelFlood, msg, args...)
}
