package storage

import (
	"fmt"
	"log/slog"

	"github.com/ProjectAether/navlink/internal/config"
	"github.com/ProjectAether/navlink/internal/database"
	gormstorage "github.com/ProjectAether/navlink/internal/storage/gorm"
	"github.com/ProjectAether/navlink/internal/storage/memory"
	"github.com/ProjectAether/navlink/internal/storage/postgres"
	sqlitestorage "github.com/ProjectAether/navlink/internal/storage/sqlite"
	wsstorage "github.com/ProjectAether/navlink/internal/storage/websocket"
)

// Dependencies are shared by every backend the factory can build.
type Dependencies struct {
	DB               config.DBConfig
	Logger           *slog.Logger
	ExtensionName    string
	ExtensionVersion string
	// Session reports the current level for websocket session messages.
	Session func() string
}

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	gormDeps := gormstorage.Dependencies{
		Logger:           deps.Logger,
		ExtensionName:    deps.ExtensionName,
		ExtensionVersion: deps.ExtensionVersion,
	}

	switch cfg.Type {
	case "memory", "":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, gormDeps)
	case "postgres":
		db, err := database.OpenPostgres(deps.DB)
		if err != nil {
			return nil, err
		}
		gormDeps.DB = db
		return postgres.New(postgres.Config{
			BatchSize:     cfg.Postgres.BatchSize,
			FlushInterval: cfg.Postgres.FlushInterval,
		}, gormDeps), nil
	case "websocket":
		b := wsstorage.New(wsstorage.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
		}, deps.Logger, deps.Session)
		b.SetExtensionVersion(deps.ExtensionVersion)
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
