package main

import (
	"github.com/ProjectAether/navlink/internal/dispatcher"
)

// registerLifecycleHandlers registers system/lifecycle command handlers with the dispatcher
func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":INIT:", func(e dispatcher.Event) (any, error) {
		Logger.Info("Host connected", "version", CurrentExtensionVersion)
		return []string{CurrentExtensionVersion, BuildDate}, nil
	})

	d.Register(":INIT:STORAGE:", func(e dispatcher.Event) (any, error) {
		go func() {
			if err := initStorage(); err != nil {
				Logger.Error("Storage initialization failed", "error", err)
			}
		}()
		return "ok", nil
	})

	d.Register(":STORAGE:STATUS:", func(e dispatcher.Event) (any, error) {
		return storageType(), nil
	})

	d.Register(":GETDIR:MODULE:", func(e dispatcher.Event) (any, error) {
		return ModulePath, nil
	})

	d.Register(":GETDIR:LOG:", func(e dispatcher.Event) (any, error) {
		return LogFilePath, nil
	})

	d.Register(":STATUS:", func(e dispatcher.Event) (any, error) {
		storageMu.Lock()
		mon := monitorService
		storageMu.Unlock()
		if mon == nil {
			return nil, nil
		}
		return mon.Report(), nil
	})

	d.Register(":SAVE:", func(e dispatcher.Event) (any, error) {
		Logger.Info("Received :SAVE: command, flushing storage")
		if err := flushStorage(); err != nil {
			Logger.Error("Failed to flush storage", "error", err)
			return nil, err
		}
		return "ok", nil
	})

	d.Register(":SHUTDOWN:", func(e dispatcher.Event) (any, error) {
		return shutdown(), nil
	})
}
