package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ProjectAether/navlink/internal/smartlink"
)

// ErrProxyNotFound is returned when a command names an unknown proxy.
var ErrProxyNotFound = errors.New("proxy not found")

// ProxyCache maps proxy names to the live proxies of the current level.
type ProxyCache struct {
	mu      sync.RWMutex
	proxies map[string]*smartlink.Proxy
}

// NewProxyCache creates an empty ProxyCache
func NewProxyCache() *ProxyCache {
	return &ProxyCache{
		proxies: make(map[string]*smartlink.Proxy),
	}
}

// Get retrieves a proxy by name
func (c *ProxyCache) Get(name string) (*smartlink.Proxy, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.proxies[name]
	return p, ok
}

// MustGet is Get returning ErrProxyNotFound for unknown names.
func (c *ProxyCache) MustGet(name string) (*smartlink.Proxy, error) {
	p, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProxyNotFound, name)
	}
	return p, nil
}

// Set stores a proxy, replacing any proxy with the same name
func (c *ProxyCache) Set(p *smartlink.Proxy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proxies[p.Name] = p
}

// Delete removes a proxy by name
func (c *ProxyCache) Delete(name string) (*smartlink.Proxy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proxies[name]
	delete(c.proxies, name)
	return p, ok
}

// Names returns the cached proxy names in sorted order
func (c *ProxyCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.proxies))
	for name := range c.proxies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every proxy in name order
func (c *ProxyCache) Each(fn func(*smartlink.Proxy)) {
	for _, name := range c.Names() {
		if p, ok := c.Get(name); ok {
			fn(p)
		}
	}
}

// Len returns the number of cached proxies
func (c *ProxyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.proxies)
}

// Reset clears all proxies from the cache
func (c *ProxyCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proxies = make(map[string]*smartlink.Proxy)
}
