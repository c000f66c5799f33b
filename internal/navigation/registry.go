// Package navigation is the host-side consumer of smart-link data. It keeps
// the latest link of every proxy and publishes each change for persistence.
package navigation

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ProjectAether/navlink/internal/channel"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/google/uuid"
)

// SettingsFunc returns the settings to stamp on a published record.
type SettingsFunc func() core.LinkSettings

type link struct {
	id       string
	data     core.LinkData
	revision uint64
	updated  time.Time
	settings core.LinkSettings
}

// Registry holds the navigation link of every proxy, keyed by proxy name.
type Registry struct {
	mu    sync.RWMutex
	links map[string]*link
	level func() string
	out   channel.Sender[core.LinkRecord]
	now   func() time.Time

	dropped atomic.Uint64
}

// NewRegistry creates a registry. level reports the current level name and
// out receives a record for every link update; either may be nil.
func NewRegistry(level func() string, out channel.Sender[core.LinkRecord]) *Registry {
	if level == nil {
		level = func() string { return "" }
	}
	return &Registry{
		links: make(map[string]*link),
		level: level,
		out:   out,
		now:   time.Now,
	}
}

// Consumer returns the smartlink.NavLinkConsumer for one proxy.
func (r *Registry) Consumer(proxy string, settings SettingsFunc) *Consumer {
	return &Consumer{registry: r, proxy: proxy, settings: settings}
}

// Get returns the current record of a proxy's link.
func (r *Registry) Get(proxy string) (core.LinkRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.links[proxy]
	if !ok {
		return core.LinkRecord{}, false
	}
	return r.record(proxy, l), true
}

// Remove drops a proxy's link and publishes a tombstone record for it.
func (r *Registry) Remove(proxy string) bool {
	r.mu.Lock()
	l, ok := r.links[proxy]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.links, proxy)
	rec := r.record(proxy, l)
	r.mu.Unlock()

	rec.Deleted = true
	r.publish(rec)
	return true
}

// Reset forgets every link without publishing tombstones.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = make(map[string]*link)
}

// Len returns the number of registered links.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.links)
}

// Dropped returns how many records could not be published because the
// writer backlog was full.
func (r *Registry) Dropped() uint64 {
	return r.dropped.Load()
}

// Records returns every link sorted by proxy name.
func (r *Registry) Records() []core.LinkRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.LinkRecord, 0, len(r.links))
	for name, l := range r.links {
		out = append(out, r.record(name, l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Proxy < out[j].Proxy })
	return out
}

func (r *Registry) set(proxy string, data core.LinkData, settings SettingsFunc) core.LinkRecord {
	r.mu.Lock()
	l, ok := r.links[proxy]
	if !ok {
		l = &link{id: uuid.NewString()}
		r.links[proxy] = l
	}
	l.data = data
	if settings != nil {
		l.settings = settings()
	}
	l.revision++
	l.updated = r.now().UTC()
	rec := r.record(proxy, l)
	r.mu.Unlock()

	r.publish(rec)
	return rec
}

// publish never blocks the host thread on a slow writer.
func (r *Registry) publish(rec core.LinkRecord) {
	if r.out != nil && !r.out.TrySend(rec) {
		r.dropped.Add(1)
	}
}

func (r *Registry) record(proxy string, l *link) core.LinkRecord {
	rec := core.LinkRecord{
		ID:        l.id,
		Proxy:     proxy,
		Level:     r.level(),
		Link:      l.data,
		Revision:  l.revision,
		Settings:  l.settings,
		UpdatedAt: l.updated,
	}
	return rec
}

// Consumer forwards one proxy's link data into the registry.
type Consumer struct {
	registry *Registry
	proxy    string
	settings SettingsFunc
}

// SetLinkData implements smartlink.NavLinkConsumer.
func (c *Consumer) SetLinkData(start, end core.Vector3, direction core.LinkDirection) {
	c.registry.set(c.proxy, core.LinkData{Start: start, End: end, Direction: direction}, c.settings)
}
