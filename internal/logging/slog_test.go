package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = orig })
	return &buf
}

func TestSetup_FileOnly_NoStdout(t *testing.T) {
	console := captureStdout(t)

	var fileBuf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &fileBuf, Level: "info"})
	m.Logger().Info("hello file")

	assert.Contains(t, fileBuf.String(), "hello file")
	assert.Empty(t, console.String())
}

func TestSetup_NoFile_WritesToStdout(t *testing.T) {
	console := captureStdout(t)

	m := NewSlogManager()
	m.Setup(Options{Level: "info"})
	m.Logger().Info("hello console")

	assert.Contains(t, console.String(), "hello console")
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "info"})

	m.Logger().Debug("should be filtered")
	m.Logger().Info("should appear")

	assert.NotContains(t, buf.String(), "should be filtered")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	m := NewSlogManager()

	m.Setup(Options{File: &buf1, Level: "info"})
	m.Logger().Info("first")
	m.Setup(Options{File: &buf2, Level: "info"})
	m.Logger().Info("second")

	assert.Contains(t, buf1.String(), "first")
	assert.NotContains(t, buf1.String(), "second")
	assert.Contains(t, buf2.String(), "second")
}

func TestSetup_GelfSinkReceivesJSON(t *testing.T) {
	var file, gelf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &file, Gelf: &gelf, Level: "info"})

	m.Logger().Info("snapped", "proxy", "ramp")

	lines := strings.Split(strings.TrimSpace(gelf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "snapped", entry["msg"])
	assert.Equal(t, "ramp", entry["proxy"])
}

func TestSetup_SessionContext(t *testing.T) {
	var buf bytes.Buffer
	level := "Harbor"
	m := NewSlogManager()
	m.Setup(Options{
		File:    &buf,
		Level:   "info",
		Context: SessionContext(func() string { return level }, func() string { return "Editable" }),
	})

	m.Logger().Info("tick")
	level = "Canyon"
	m.Logger().Info("tock")

	out := buf.String()
	assert.Contains(t, out, "level_name=Harbor")
	assert.Contains(t, out, "level_name=Canyon")
	assert.Contains(t, out, "host_context=Editable")
}

func TestSetup_WithOTelProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()

	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "info", Provider: provider})

	m.Logger().Info("otel integrated")
	assert.Contains(t, buf.String(), "otel integrated")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
}

func TestFlush_NilProvider(t *testing.T) {
	assert.NoError(t, NewSlogManager().Flush(context.Background()))
}

func TestWriteLog_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		t.Run(level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(Options{File: &buf, Level: "debug"})

			m.WriteLog(":LINK:SNAP:", level+" message", level)

			assert.Contains(t, buf.String(), level+" message")
			assert.Contains(t, buf.String(), ":LINK:SNAP:")
		})
	}
}

func TestWriteLog_NilLogger(t *testing.T) {
	NewSlogManager().WriteLog("fn", "data", "info")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&buf1, nil),
		nil,
		slog.NewTextHandler(&buf2, nil),
	)
	require.Len(t, multi.handlers, 2)

	slog.New(multi).Info("fanned out")

	assert.Contains(t, buf1.String(), "fanned out")
	assert.Contains(t, buf2.String(), "fanned out")
}

func TestMultiHandler_Enabled(t *testing.T) {
	infoHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})

	assert.False(t, NewMultiHandler(infoHandler).Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, NewMultiHandler(infoHandler, debugHandler).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(slog.NewTextHandler(&buf, nil))

	slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "registry")})).Info("a")
	slog.New(multi.WithGroup("link")).Info("b", "rev", 2)

	assert.Contains(t, buf.String(), "component=registry")
	assert.Contains(t, buf.String(), "link.rev=2")
	assert.Equal(t, multi, multi.WithGroup(""))
}

type errorHandler struct {
	slog.Handler
}

func (h *errorHandler) Handle(context.Context, slog.Record) error { return errors.New("handler error") }
func (h *errorHandler) Enabled(context.Context, slog.Level) bool  { return true }

func TestMultiHandler_HandleError(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(&errorHandler{}, slog.NewTextHandler(&buf, nil))

	r := slog.NewRecord(timeZero, slog.LevelInfo, "should reach spy", 0)
	err := multi.Handle(context.Background(), r)

	assert.Error(t, err)
	assert.Contains(t, buf.String(), "should reach spy")
}
