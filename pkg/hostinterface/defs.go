package hostinterface

import (
	"github.com/ProjectAether/navlink/internal/dispatcher"
)

// Config defines how calls to this extension will be handled
var Config = configStruct{}

func init() {
	Config.Init()
}

type configStruct struct {
	// version is returned when the host first loads the extension
	version string

	dispatcher *dispatcher.Dispatcher

	// onError receives responses that carried an error, if set
	onError func(command string, err error)
}

// Init resets the config to its defaults
func (c *configStruct) Init() {
	c.version = "No version set"
	c.dispatcher = nil
	c.onError = nil
}

// SetVersion sets the version string returned by NavLinkExtensionVersion
func SetVersion(version string) {
	Config.version = version
}

// SetDispatcher sets the event dispatcher for handling commands
func SetDispatcher(d *dispatcher.Dispatcher) {
	Config.dispatcher = d
}

// GetDispatcher returns the configured dispatcher, or nil if not set
func GetDispatcher() *dispatcher.Dispatcher {
	return Config.dispatcher
}

// OnError registers a callback invoked for every failed command
func OnError(fn func(command string, err error)) {
	Config.onError = fn
}
