// Package logging wires slog, zerolog and the Graylog/OTel log sinks.
package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogFilePath returns <logsDir>/<extension>.<yyyyMMdd_HHmmss>.log.
func LogFilePath(logsDir, extensionName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", extensionName, sessionStart.Format("20060102_150405")),
	)
}

// NewZerolog returns a JSON line logger for the components that log through
// zerolog (database, influx, dispatcher).
func NewZerolog(w io.Writer, level string, component string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if w == nil {
		w = io.Discard
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
}
