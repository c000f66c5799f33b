package session

import (
	"sync"
	"time"

	"github.com/ProjectAether/navlink/pkg/core"
)

// Context holds the current level and whether the host is editing or running it
type Context struct {
	mu        sync.RWMutex
	level     string
	host      core.HostContext
	startedAt time.Time
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{level: "No level loaded", host: core.Editable}
}

// Level returns the current level name
func (c *Context) Level() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// SetLevel switches to a new level. The host goes back to editing.
func (c *Context) SetLevel(level string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
	c.host = core.Editable
	c.startedAt = time.Time{}
}

// Host returns the current host context
func (c *Context) Host() core.HostContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.host
}

// BeginPlay moves the session into the running context. It reports false if
// the session was already running.
func (c *Context) BeginPlay(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.host == core.Running {
		return false
	}
	c.host = core.Running
	c.startedAt = now
	return true
}

// StartedAt returns when play began, or the zero time while editing
func (c *Context) StartedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startedAt
}
