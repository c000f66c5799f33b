package logging

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var timeZero time.Time

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name          string
		logsDir       string
		extensionName string
		want          string
	}{
		{"basic path", "navlinklogs", "aether_navlink", filepath.Join("navlinklogs", "aether_navlink.20260212_213836.log")},
		{"relative path with dot", "./navlinklogs", "aether_navlink", filepath.Join(".", "navlinklogs", "aether_navlink.20260212_213836.log")},
		{"absolute path", filepath.Join("/var", "log", "aether"), "aether_navlink", filepath.Join("/var", "log", "aether", "aether_navlink.20260212_213836.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, tt.extensionName, sessionStart))
		})
	}
}

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, "warn", "database")

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	entry := decodeLast(t, &buf)
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "database", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestNewZerolog_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, "chatty", "influx")

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Info().Msg("shown")
	assert.NotZero(t, buf.Len())

	noop := NewZerolog(nil, "", "noop")
	noop.Info().Msg("discarded")
}
