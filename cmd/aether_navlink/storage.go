package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ProjectAether/navlink/internal/config"
	"github.com/ProjectAether/navlink/internal/monitor"
	"github.com/ProjectAether/navlink/internal/storage"
	wsstorage "github.com/ProjectAether/navlink/internal/storage/websocket"
	"github.com/ProjectAether/navlink/internal/worker"
)

var storageMu sync.Mutex

// initStorage creates the configured backend, starts the worker draining the
// registry into it and starts the status monitor. Calling it again after a
// successful init is a no-op.
func initStorage() error {
	storageMu.Lock()
	defer storageMu.Unlock()

	if storageBackend != nil {
		return nil
	}

	storageCfg := config.GetStorageConfig()
	storageCfg.Memory.OutputDir = resolvePath(storageCfg.Memory.OutputDir)
	storageCfg.SQLite.DumpPath = resolvePath(storageCfg.SQLite.DumpPath)

	backend, err := storage.NewBackend(storageCfg, storage.Dependencies{
		DB:               config.GetDBConfig(),
		Logger:           Logger,
		ExtensionName:    ExtensionName,
		ExtensionVersion: CurrentExtensionVersion,
		Session:          sessionCtx.Level,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	storageBackend = backend
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)

	workerManager = worker.NewManager(records, storageBackend, Logger)
	workerManager.Start(context.Background())

	monitorService = monitor.NewService(monitor.Dependencies{
		Proxies:    proxies,
		Registry:   registry,
		Worker:     workerManager,
		Undo:       undoManager,
		Session:    sessionCtx,
		Logger:     Logger,
		Writer:     Influx,
		StatusPath: filepath.Join(ModuleFolder, ExtensionName+".status.json"),
	})
	monitorService.Start(config.GetMonitorConfig().Interval)
	return nil
}

// storageType reports the active backend, or "none" before init.
func storageType() string {
	storageMu.Lock()
	defer storageMu.Unlock()
	if storageBackend == nil {
		return "none"
	}
	return config.GetStorageConfig().Type
}

// announceLevel re-announces the session to a streaming backend after the
// host switched levels.
func announceLevel(level string) {
	storageMu.Lock()
	ws, ok := storageBackend.(*wsstorage.Backend)
	storageMu.Unlock()
	if !ok {
		return
	}
	if err := ws.Announce(level); err != nil {
		Logger.Warn("Failed to announce level to websocket server", "level", level, "error", err)
	}
}

type flusher interface {
	Flush() error
}

type dumper interface {
	Dump() error
}

// flushStorage pushes pending writes to durable storage without closing it.
func flushStorage() error {
	storageMu.Lock()
	backend := storageBackend
	storageMu.Unlock()

	var errs []error
	switch b := backend.(type) {
	case flusher:
		errs = append(errs, b.Flush())
	case dumper:
		errs = append(errs, b.Dump())
	}
	storageMu.Lock()
	provider := OTelProvider
	storageMu.Unlock()
	if provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, provider.Flush(ctx))
	}
	return errors.Join(errs...)
}

// shutdown stops every service and closes storage. The worker drains the
// record channel before the backend is closed. It returns the exported file
// of the backend, if any.
func shutdown() string {
	storageMu.Lock()
	mon, w, backend, provider := monitorService, workerManager, storageBackend, OTelProvider
	monitorService, workerManager, storageBackend, OTelProvider = nil, nil, nil, nil
	storageMu.Unlock()

	if mon != nil {
		mon.Stop()
	}
	if w != nil {
		w.Stop()
	}

	var exported string
	if backend != nil {
		if err := backend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
		if e, ok := backend.(storage.Exportable); ok {
			exported = e.ExportedFilePath()
		}
	}

	if err := Influx.Close(); err != nil {
		Logger.Warn("Failed to close InfluxDB manager", "error", err)
	}
	if provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if registry != nil {
		uploadExport(exported, registry.Len())
	}
	Logger.Info("Shut down", "exported", exported)
	return exported
}
