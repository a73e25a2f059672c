// Package logging installs the process-wide slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// EnvDebug forces debug logging when set to a non-empty value.
const EnvDebug = "DEBUG"

// Level is the shared level of every handler created by this package.
var Level = &slog.LevelVar{}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "err", "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Setup sets the level from name (debug wins when DEBUG is set) and installs
// a handler writing to stderr.
func Setup(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	if os.Getenv(EnvDebug) != "" {
		lvl = slog.LevelDebug
	}
	Level.Set(lvl)

	slog.SetDefault(slog.New(NewHandler(os.Stderr, isTerminal(os.Stderr))))
	return nil
}

// NewHandler returns a colored handler for terminals and a text handler
// otherwise.
func NewHandler(w io.Writer, terminal bool) slog.Handler {
	if terminal {
		return tint.NewHandler(w, &tint.Options{
			NoColor:    runtime.GOOS == "windows",
			Level:      Level,
			TimeFormat: "15:04:05",
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				return slog.String(a.Key, strings.ToLower(a.Value.Any().(slog.Level).String()))
			}
			return a
		},
	})
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
