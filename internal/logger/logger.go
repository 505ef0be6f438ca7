// Package logger provides the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the shared logger. It is usable before Init and discards
// everything below warning level until then.
var Logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})

// Options configures Init.
type Options struct {
	Debug bool
	// File, when set, redirects output to a size-rotated log file.
	File string
}

func prefix() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#B91C1C")).
		Bold(true).
		Padding(0, 1)
	return style.Render("anime4up")
}

// Init replaces Logger according to opts.
func Init(opts Options) error {
	var w io.Writer = os.Stderr
	pfx := prefix()

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		w = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		pfx = "anime4up"
	}

	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: opts.Debug || opts.File != "",
		ReportCaller:    opts.Debug,
		TimeFormat:      "15:04:05",
		Prefix:          pfx,
	})
	if opts.Debug {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.InfoLevel)
	}

	Logger = l
	return nil
}

// SetOutput points the logger at w, keeping its level. Tests use it to
// capture or silence output.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Debug logs at debug level.
func Debug(msg string, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs at info level.
func Info(msg string, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs at warning level.
func Warn(msg string, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs at error level.
func Error(msg string, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}
