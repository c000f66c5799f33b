// Package memory keeps links in a map and exports them as JSON on close.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/ProjectAether/navlink/internal/config"
	"github.com/ProjectAether/navlink/pkg/core"
)

// Backend stores the latest revision of every link in memory.
type Backend struct {
	cfg   config.MemoryConfig
	links map[string]core.LinkRecord // keyed by link ID
	now   func() time.Time

	lastExportPath string
	closed         bool
	mu             sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		links: make(map[string]core.LinkRecord),
		now:   time.Now,
	}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close exports the stored links when an output directory is configured.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// SaveLink stores a record unless a newer revision of the link is present.
func (b *Backend) SaveLink(r *core.LinkRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.links[r.ID]; ok && cur.Revision >= r.Revision {
		return nil
	}
	b.links[r.ID] = *r
	return nil
}

// DeleteLink drops a link by ID.
func (b *Backend) DeleteLink(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.links, id)
	return nil
}

// Links returns every stored link ordered by level and proxy.
func (b *Backend) Links() ([]core.LinkRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sorted(), nil
}

// ExportedFilePath returns the path written by the last export.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func (b *Backend) sorted() []core.LinkRecord {
	out := make([]core.LinkRecord, 0, len(b.links))
	for _, r := range b.links {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Proxy < out[j].Proxy
	})
	return out
}
