// Package worker moves published link records from the registry into the
// storage backend on a background goroutine.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ProjectAether/navlink/internal/channel"
	"github.com/ProjectAether/navlink/internal/storage"
	"github.com/ProjectAether/navlink/pkg/core"
)

// Stats summarises what the worker has written so far.
type Stats struct {
	Saved   uint64
	Deleted uint64
	Failed  uint64
	Backlog int
}

// Manager drains one record channel into one backend, preserving order.
type Manager struct {
	in      channel.Receiver[core.LinkRecord]
	backend storage.Backend
	logger  *slog.Logger

	saved   atomic.Uint64
	deleted atomic.Uint64
	failed  atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new worker manager.
func NewManager(in channel.Receiver[core.LinkRecord], backend storage.Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		in:      in,
		backend: backend,
		logger:  logger,
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// Start runs the worker in the background until Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		m.Run(ctx)
	}()
}

// Stop cancels the worker and waits until the backlog is written.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run writes records until ctx is cancelled or the channel is closed. On
// cancellation whatever is already queued is still written.
func (m *Manager) Run(ctx context.Context) {
	records := m.in.Receive()
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			m.write(rec)
		case <-ctx.Done():
			m.drain(records)
			return
		}
	}
}

// Stats returns the current counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Saved:   m.saved.Load(),
		Deleted: m.deleted.Load(),
		Failed:  m.failed.Load(),
		Backlog: m.in.Len(),
	}
}

func (m *Manager) drain(records <-chan core.LinkRecord) {
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			m.write(rec)
		default:
			return
		}
	}
}

func (m *Manager) write(rec core.LinkRecord) {
	var err error
	if rec.Deleted {
		err = m.backend.DeleteLink(rec.ID)
	} else {
		err = m.backend.SaveLink(&rec)
	}
	if err != nil {
		m.failed.Add(1)
		m.logger.Error("Failed to store link",
			"proxy", rec.Proxy,
			"id", rec.ID,
			"revision", rec.Revision,
			"deleted", rec.Deleted,
			"error", err)
		return
	}
	if rec.Deleted {
		m.deleted.Add(1)
	} else {
		m.saved.Add(1)
	}
}
