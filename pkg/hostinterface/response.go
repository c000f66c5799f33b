package hostinterface

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ProjectAether/navlink/internal/dispatcher"
)

// TimestampCommand is answered by the extension itself without a dispatcher.
const TimestampCommand = ":TIMESTAMP:"

var errNoDispatcher = errors.New("no dispatcher configured")

// Call routes a command exactly like a host call and returns the response
// string the host would receive.
func Call(command string, args ...string) string {
	return handleCall(command, args)
}

// handleCall routes a single host call and returns the formatted response.
func handleCall(command string, args []string) string {
	if command == TimestampCommand {
		return formatDispatchResponse(command, getTimestamp(), nil)
	}

	d := Config.dispatcher
	if d == nil {
		return formatDispatchResponse(command, nil, errNoDispatcher)
	}

	result, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	if err != nil && Config.onError != nil {
		Config.onError(command, err)
	}
	return formatDispatchResponse(command, result, err)
}

// splitCommand splits the plain call form "command|arg1|arg2" into its parts.
func splitCommand(input string) (string, []string) {
	parts := strings.Split(input, "|")
	if len(parts) == 1 {
		return input, nil
	}
	return parts[0], parts[1:]
}

// formatDispatchResponse formats a dispatcher result as a host array literal
func formatDispatchResponse(command string, result any, err error) string {
	cmd := quote(command)
	if err != nil {
		return fmt.Sprintf(`["error",%s,%s]`, cmd, quote(err.Error()))
	}
	if result == nil {
		return fmt.Sprintf(`["ok",%s]`, cmd)
	}
	b, mErr := json.Marshal(result)
	if mErr != nil {
		b = []byte(quote(fmt.Sprintf("%v", result)))
	}
	return fmt.Sprintf(`["ok",%s,%s]`, cmd, b)
}

func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

func getTimestamp() string {
	return strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
}
