package hostinterface

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/ProjectAether/navlink/internal/dispatcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDispatchResponse(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		result   any
		err      error
		expected string
	}{
		{
			name:     "success with string array (VERSION)",
			command:  ":VERSION:",
			result:   []string{"0.0.1", "2026-02-01"},
			expected: `["ok",":VERSION:",["0.0.1","2026-02-01"]]`,
		},
		{
			name:     "success with simple string",
			command:  ":LINK:CREATE:",
			result:   "link_1",
			expected: `["ok",":LINK:CREATE:","link_1"]`,
		},
		{
			name:     "success with path string is escaped",
			command:  ":LINK:GET:",
			result:   `C:\Levels\Map`,
			expected: `["ok",":LINK:GET:","C:\\Levels\\Map"]`,
		},
		{
			name:     "success with nil result",
			command:  ":LINK:PLACE:",
			expected: `["ok",":LINK:PLACE:"]`,
		},
		{
			name:     "error response",
			command:  ":LINK:SET:",
			err:      errors.New(`unknown field "Size"`),
			expected: `["error",":LINK:SET:","unknown field \"Size\""]`,
		},
		{
			name:     "success with map",
			command:  ":LINK:LIST:",
			result:   map[string]int{"count": 42},
			expected: `["ok",":LINK:LIST:",{"count":42}]`,
		},
		{
			name:     "unmarshalable result falls back to string",
			command:  ":CHAN:",
			result:   make(chan int),
			expected: `["ok",":CHAN:","`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDispatchResponse(tt.command, tt.result, tt.err)
			if tt.name == "unmarshalable result falls back to string" {
				assert.True(t, strings.HasPrefix(got, tt.expected), got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSplitCommand(t *testing.T) {
	cmd, args := splitCommand(":LINK:GET:|link_1")
	assert.Equal(t, ":LINK:GET:", cmd)
	assert.Equal(t, []string{"link_1"}, args)

	cmd, args = splitCommand(":LINK:LIST:")
	assert.Equal(t, ":LINK:LIST:", cmd)
	assert.Nil(t, args)
}

func withDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	SetDispatcher(d)
	t.Cleanup(func() {
		d.Close()
		Config.Init()
	})
	return d
}

func TestHandleCall_Routes(t *testing.T) {
	d := withDispatcher(t)
	d.Register(":ECHO:", func(e dispatcher.Event) (any, error) {
		return e.Args, nil
	})

	assert.Equal(t, `["ok",":ECHO:",["a","b"]]`, handleCall(":ECHO:", []string{"a", "b"}))
	assert.Equal(t, `["ok",":ECHO:",["c"]]`, Call(":ECHO:", "c"))
}

func TestHandleCall_UnknownCommand(t *testing.T) {
	withDispatcher(t)
	var failed []string
	OnError(func(command string, err error) {
		assert.ErrorIs(t, err, dispatcher.ErrUnknownCommand)
		failed = append(failed, command)
	})

	got := handleCall(":NOPE:", nil)

	assert.True(t, strings.HasPrefix(got, `["error",":NOPE:","unknown command`), got)
	assert.Equal(t, []string{":NOPE:"}, failed)
}

func TestHandleCall_NoDispatcher(t *testing.T) {
	Config.Init()
	assert.Equal(t, `["error",":LINK:LIST:","no dispatcher configured"]`, handleCall(":LINK:LIST:", nil))
}

func TestHandleCall_Timestamp(t *testing.T) {
	Config.Init()
	got := handleCall(TimestampCommand, nil)

	require.True(t, strings.HasPrefix(got, `["ok",":TIMESTAMP:","`), got)
	raw := strings.TrimSuffix(strings.TrimPrefix(got, `["ok",":TIMESTAMP:","`), `"]`)
	ns, err := strconv.ParseInt(raw, 10, 64)
	require.NoError(t, err)
	assert.Positive(t, ns)
}

func TestSetVersion(t *testing.T) {
	t.Cleanup(Config.Init)
	assert.Equal(t, "No version set", Config.version)
	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", Config.version)
}
