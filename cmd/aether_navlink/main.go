package main

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C" // This is required to import the C code

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ProjectAether/navlink/internal/cache"
	"github.com/ProjectAether/navlink/internal/channel"
	"github.com/ProjectAether/navlink/internal/config"
	"github.com/ProjectAether/navlink/internal/dispatcher"
	"github.com/ProjectAether/navlink/internal/handlers"
	"github.com/ProjectAether/navlink/internal/influx"
	"github.com/ProjectAether/navlink/internal/logging"
	"github.com/ProjectAether/navlink/internal/monitor"
	"github.com/ProjectAether/navlink/internal/navigation"
	intOtel "github.com/ProjectAether/navlink/internal/otel"
	"github.com/ProjectAether/navlink/internal/session"
	"github.com/ProjectAether/navlink/internal/storage"
	"github.com/ProjectAether/navlink/internal/undo"
	"github.com/ProjectAether/navlink/internal/worker"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/ProjectAether/navlink/pkg/hostinterface"

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.1.0"
	BuildDate               string = "unknown"

	ExtensionName string = "aether_navlink"
)

// recordBufferSize bounds the link records waiting for the storage worker.
const recordBufferSize = 4096

// file paths
var (
	// ModulePath is the absolute path to this library file.
	ModulePath string

	// ModuleFolder is the parent folder of ModulePath. Config, logs and
	// exports are resolved relative to it.
	ModuleFolder string

	InitLogFilePath string
	InitLogFile     *os.File
	LogFilePath     string
	LogFile         *os.File
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// Influx receives op and status metrics
	Influx *influx.Manager

	SessionStartTime time.Time = time.Now()

	// Session state shared by the handlers, logging and monitor
	sessionCtx  *session.Context
	proxies     *cache.ProxyCache
	undoManager *undo.Manager
	registry    *navigation.Registry
	records     channel.Channel[core.LinkRecord]

	// Services
	handlerService  *handlers.Service
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	eventDispatcher *dispatcher.Dispatcher

	// Storage backend, nil until initStorage succeeds
	storageBackend storage.Backend
)

// init is run automatically when the module is loaded
func init() {
	var err error

	ModulePath = hostinterface.GetModulePath()
	ModuleFolder = filepath.Dir(ModulePath)
	if ModulePath == "" {
		ModuleFolder, _ = os.Getwd()
	}

	InitLogFilePath = filepath.Join(ModuleFolder, ExtensionName+".init.log")
	InitLogFile, err = os.Create(InitLogFilePath)
	if err != nil {
		// Log to stderr since logging isn't set up yet
		fmt.Fprintf(os.Stderr, "Failed to create init log file: %v\n", err)
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{File: fileOrNil(InitLogFile), Level: "info"})
	Logger = SlogManager.Logger()

	err = config.Load(ModuleFolder)
	if err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := resolvePath(config.GetString("logsDir"))
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	LogFilePath = logging.LogFilePath(logsDir, ExtensionName, SessionStartTime)

	// keep one previous log with the same name
	if _, err := os.Stat(LogFilePath); err == nil {
		_ = os.Rename(LogFilePath, LogFilePath+".old")
	}

	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	}
	Logger.Info("Begin logging in logs directory", "path", LogFilePath)

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(otelCfg, fileOrNil(LogFile))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	var gelfWriter io.Writer
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGelfWriter(gl.Address, ExtensionName)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", gl.Address)
		} else {
			gelfWriter = w
		}
	}

	sessionCtx = session.NewContext()

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(logging.Options{
		File:     fileOrNil(LogFile),
		Level:    config.GetString("logLevel"),
		Provider: otelLogProvider,
		Gelf:     gelfWriter,
		Context: logging.SessionContext(sessionCtx.Level, func() string {
			return sessionCtx.Host().String()
		}),
		ServiceName: otelCfg.ServiceName,
	})
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath)

	Influx = influx.NewManager(
		logging.NewZerolog(fileOrNil(LogFile), config.GetString("logLevel"), "influx"),
		config.GetInfluxConfig(),
		filepath.Join(logsDir, fmt.Sprintf("%s_influx_backup_%s.lp.gz", ExtensionName, SessionStartTime.Format("20060102_150405"))),
	)

	Logger.Info("Setting up host interface...")
	if err := setupHostInterface(); err != nil {
		Logger.Error("Failed to set up host interface!", "error", err)
		panic(err)
	}
	Logger.Info("Set up host interface")

	go startServices()
}

// setupHostInterface builds the link pipeline and registers every command,
// so the host can create links as soon as the library is loaded. Records
// buffer in the channel until storage is ready.
func setupHostInterface() error {
	hostinterface.SetVersion(CurrentExtensionVersion)

	dispatcherLogger := logging.NewDispatcherLogger(
		logging.NewZerolog(fileOrNil(LogFile), config.GetString("logLevel"), "dispatcher"),
	)
	d, err := dispatcher.New(dispatcherLogger)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	proxies = cache.NewProxyCache()
	undoManager = undo.NewManager(config.GetUndoConfig().MaxHistory)
	records = channel.New[core.LinkRecord](recordBufferSize)
	registry = navigation.NewRegistry(sessionCtx.Level, records)

	handlerService = handlers.NewService(handlers.Dependencies{
		Proxies:          proxies,
		Registry:         registry,
		Undo:             undoManager,
		Session:          sessionCtx,
		Logger:           Logger,
		LinkDefaults:     config.GetLinkDefaults,
		Ops:              Influx,
		OnLevelChange:    announceLevel,
		ExtensionName:    ExtensionName,
		ExtensionVersion: CurrentExtensionVersion,
		BuildDate:        BuildDate,
	})
	handlerService.Register(d)
	registerLifecycleHandlers(d)

	hostinterface.SetDispatcher(d)
	hostinterface.OnError(func(command string, err error) {
		Logger.Warn("Command failed", "command", command, "error", err)
	})
	eventDispatcher = d

	Logger.Info("Dispatcher initialized", "commands", len(d.Commands()))
	return nil
}

// startServices connects metrics and storage in the background.
func startServices() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Influx.Connect(ctx); err != nil {
		Logger.Info("InfluxDB metrics not connected", "reason", err)
	}

	checkServerStatus()

	if err := initStorage(); err != nil {
		Logger.Error("Storage initialization failed", "error", err)
	}
}

// resolvePath makes relative config paths relative to the module folder.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ModuleFolder, p)
}

// fileOrNil avoids handing a typed nil *os.File to io.Writer consumers.
func fileOrNil(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}

// main runs commands given on the command line through the dispatcher, the
// same path host calls take: aether_navlink :LINK:CREATE: ramp
func main() {
	Logger.Info("Starting up...")
	defer shutdown()

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("No arguments provided.")
		fmt.Println("Commands:", strings.Join(eventDispatcher.Commands(), " "))
		return
	}

	if err := initStorage(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(hostinterface.Call(args[0], args[1:]...))
}
