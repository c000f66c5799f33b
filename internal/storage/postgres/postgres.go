// Package postgres implements the storage.Backend interface using GORM/PostgreSQL
// with an internal queue and a background DB writer goroutine.
package postgres

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ProjectAether/navlink/internal/queue"
	gormstorage "github.com/ProjectAether/navlink/internal/storage/gorm"
	"github.com/ProjectAether/navlink/pkg/core"
)

const (
	defaultBatchSize     = 500
	defaultFlushInterval = 2 * time.Second
)

// Config controls how queued writes are batched.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// Backend queues link writes and applies them in batches.
type Backend struct {
	store   *gormstorage.Backend
	cfg     Config
	log     *slog.Logger
	pending *queue.Queue[core.LinkRecord]

	flushMu   sync.Mutex
	stopChan  chan struct{}
	done      sync.WaitGroup
	lastWrite atomic.Int64
}

// New creates a new queued GORM storage backend.
func New(cfg Config, deps gormstorage.Dependencies) *Backend {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{
		store:    gormstorage.New(deps),
		cfg:      cfg,
		log:      deps.Logger,
		pending:  queue.New[core.LinkRecord](),
		stopChan: make(chan struct{}),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if err := b.store.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.done.Add(1)
	go b.writeLoop()
	return nil
}

// Close stops the writer, flushes what is left and closes the connection.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	b.done.Wait()

	flushErr := b.Flush()
	if err := b.store.Close(); err != nil {
		return err
	}
	return flushErr
}

// SaveLink queues a link upsert.
func (b *Backend) SaveLink(r *core.LinkRecord) error {
	b.pending.Push(*r)
	return nil
}

// DeleteLink queues a tombstone behind any pending saves of the same link.
func (b *Backend) DeleteLink(id string) error {
	b.pending.Push(core.LinkRecord{ID: id, Deleted: true})
	return nil
}

// Links flushes pending writes and reads back every stored link.
func (b *Backend) Links() ([]core.LinkRecord, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}
	return b.store.Links()
}

// Flush writes every queued record in batches. A failed batch is put back
// at the front of the queue so ordering survives a retry.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	start := time.Now()
	written := 0
	for !b.pending.Empty() {
		batch := b.pending.Take(b.cfg.BatchSize)
		if err := b.store.Apply(batch); err != nil {
			b.pending.Requeue(batch...)
			return fmt.Errorf("failed to write %d links: %w", len(batch), err)
		}
		written += len(batch)
	}
	if written > 0 {
		b.lastWrite.Store(int64(time.Since(start)))
	}
	return nil
}

// Pending returns how many records wait for the next flush.
func (b *Backend) Pending() int {
	return b.pending.Len()
}

// GetLastDBWriteDuration returns the duration of the last non-empty flush.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

func (b *Backend) writeLoop() {
	defer b.done.Done()
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.log.Error("Error writing links", "error", err, "pending", b.pending.Len())
			}
		}
	}
}
