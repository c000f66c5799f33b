// Package sqlitestorage keeps links in an in-memory SQLite database and
// dumps it to disk periodically and on close via VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ProjectAether/navlink/internal/database"
	gormstorage "github.com/ProjectAether/navlink/internal/storage/gorm"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	deps     gormstorage.Dependencies
	stopChan chan struct{}
	done     sync.WaitGroup
	dumpMu   sync.Mutex
	lastDump string
}

// New creates a new SQLite storage backend.
func New(cfg Config, deps gormstorage.Dependencies) (*Backend, error) {
	db, err := database.OpenSQLite("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	deps.DB = db
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Backend{
		Backend:  gormstorage.New(deps),
		db:       db,
		cfg:      cfg,
		deps:     deps,
		stopChan: make(chan struct{}),
	}, nil
}

// Init migrates the schema and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.done.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, writes a final dump and closes the database.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	b.done.Wait()

	var dumpErr error
	if b.cfg.DumpPath != "" {
		dumpErr = b.Dump()
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return dumpErr
}

// Dump writes the current database to the configured path.
func (b *Backend) Dump() error {
	b.dumpMu.Lock()
	defer b.dumpMu.Unlock()

	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		b.deps.Logger.Error("Error dumping to disk", "error", err)
		return err
	}
	b.lastDump = b.cfg.DumpPath
	b.deps.Logger.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// ExportedFilePath returns the path of the last successful dump.
func (b *Backend) ExportedFilePath() string {
	b.dumpMu.Lock()
	defer b.dumpMu.Unlock()
	return b.lastDump
}

func (b *Backend) dumpLoop() {
	defer b.done.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Dump()
		}
	}
}
