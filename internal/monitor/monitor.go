// Package monitor periodically reports proxy, link and writer statistics.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ProjectAether/navlink/internal/cache"
	"github.com/ProjectAether/navlink/internal/navigation"
	"github.com/ProjectAether/navlink/internal/session"
	"github.com/ProjectAether/navlink/internal/undo"
	"github.com/ProjectAether/navlink/internal/worker"
)

const defaultInterval = 30 * time.Second

// StatusWriter receives every status snapshot, e.g. the influx manager.
type StatusWriter interface {
	WriteStatus(tags map[string]string, fields map[string]any) error
}

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Proxies  *cache.ProxyCache
	Registry *navigation.Registry
	Worker   *worker.Manager
	Undo     *undo.Manager
	Session  *session.Context
	Logger   *slog.Logger
	// Writer is optional.
	Writer StatusWriter
	// StatusPath is rewritten with the latest snapshot when set.
	StatusPath string
}

// Status is one snapshot of the extension's state.
type Status struct {
	Time        time.Time `json:"time"`
	Level       string    `json:"level"`
	Host        string    `json:"host"`
	Proxies     int       `json:"proxies"`
	Links       int       `json:"links"`
	Saved       uint64    `json:"saved"`
	Deleted     uint64    `json:"deleted"`
	Failed      uint64    `json:"failed"`
	Backlog     int       `json:"backlog"`
	Dropped     uint64    `json:"dropped"`
	LastWriteMs float64   `json:"lastWriteMs"`
	UndoDepth   int       `json:"undoDepth"`
	RedoDepth   int       `json:"redoDepth"`
}

// Tags returns the influx tags of a snapshot.
func (s Status) Tags() map[string]string {
	return map[string]string{"level": s.Level, "host": s.Host}
}

// Fields returns the influx fields of a snapshot.
func (s Status) Fields() map[string]any {
	return map[string]any{
		"proxies":       s.Proxies,
		"links":         s.Links,
		"saved":         s.Saved,
		"deleted":       s.Deleted,
		"failed":        s.Failed,
		"backlog":       s.Backlog,
		"dropped":       s.Dropped,
		"last_write_ms": s.LastWriteMs,
		"undo_depth":    s.UndoDepth,
		"redo_depth":    s.RedoDepth,
	}
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	now       func() time.Time
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, now: time.Now}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot collects the current status. Nil dependencies report zero.
func (s *Service) Snapshot() Status {
	st := Status{Time: s.now().UTC()}
	if s.deps.Session != nil {
		st.Level = s.deps.Session.Level()
		st.Host = s.deps.Session.Host().String()
	}
	if s.deps.Proxies != nil {
		st.Proxies = s.deps.Proxies.Len()
	}
	if s.deps.Registry != nil {
		st.Links = s.deps.Registry.Len()
		st.Dropped = s.deps.Registry.Dropped()
	}
	if s.deps.Worker != nil {
		ws := s.deps.Worker.Stats()
		st.Saved, st.Deleted, st.Failed, st.Backlog = ws.Saved, ws.Deleted, ws.Failed, ws.Backlog
		st.LastWriteMs = float64(s.deps.Worker.GetLastDBWriteDuration().Microseconds()) / 1000
	}
	if s.deps.Undo != nil {
		st.UndoDepth, st.RedoDepth = s.deps.Undo.Depths()
	}
	return st
}

// Report takes a snapshot and sends it to the log, status file and writer.
func (s *Service) Report() Status {
	st := s.Snapshot()
	s.deps.Logger.Debug("Status",
		"level", st.Level,
		"proxies", st.Proxies,
		"links", st.Links,
		"backlog", st.Backlog,
		"failed", st.Failed,
		"dropped", st.Dropped)

	if s.deps.StatusPath != "" {
		if err := writeStatusFile(s.deps.StatusPath, st); err != nil {
			s.deps.Logger.Error("Error writing status file", "error", err)
		}
	}
	if s.deps.Writer != nil {
		if err := s.deps.Writer.WriteStatus(st.Tags(), st.Fields()); err != nil {
			s.deps.Logger.Error("Error writing status metrics", "error", err)
		}
	}
	return st
}

// Start reports every interval until Stop is called.
func (s *Service) Start(interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Report()
			}
		}
	}()
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

func writeStatusFile(path string, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
