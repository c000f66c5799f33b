// Package database opens the gorm connections used by the link backends.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ProjectAether/navlink/internal/config"
	"github.com/ProjectAether/navlink/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var memoryDBSeq atomic.Uint64

var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
}

// OpenPostgres returns a connection to the configured Postgres database.
func OpenPostgres(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite returns a connection to a SQLite database file. An empty path
// opens a private in-memory database that can be dumped with DumpMemoryDBToDisk.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:navlinks_%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// Migrate creates the link tables and stamps the extension that created them.
func Migrate(db *gorm.DB, extensionName, extensionVersion string) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	var count int64
	if err := db.Model(&model.ExtensionInfo{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to read extension info: %w", err)
	}
	if count > 0 {
		return nil
	}
	err := db.Create(&model.ExtensionInfo{
		ExtensionName:    extensionName,
		ExtensionVersion: extensionVersion,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to create extension info: %w", err)
	}
	return nil
}

// DumpMemoryDBToDisk vacuums the database into a file, replacing any
// previous dump at that path.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}
	if strings.Contains(sqliteFilePath, "'") {
		return fmt.Errorf("sqlite file path must not contain quotes: %s", sqliteFilePath)
	}

	if err := os.MkdirAll(filepath.Dir(sqliteFilePath), 0o755); err != nil {
		return fmt.Errorf("error creating dump directory: %w", err)
	}
	if _, err := os.Stat(sqliteFilePath); err == nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	if err := db.Exec("VACUUM INTO 'file:" + sqliteFilePath + "';").Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

// GetBackupDBPaths returns paths to all .db files in the given directory.
func GetBackupDBPaths(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dbPaths []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".db") {
			dbPaths = append(dbPaths, filepath.Join(dir, file.Name()))
		}
	}
	return dbPaths, nil
}

// Manager owns a single gorm connection, falling back from Postgres to an
// in-memory SQLite database when Postgres is unreachable.
type Manager struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Local  bool
	Logger zerolog.Logger
}

// NewManager creates a database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect opens Postgres and verifies it with a ping. On failure it opens a
// local SQLite database instead and sets Local.
func (m *Manager) Connect(cfg config.DBConfig) error {
	db, err := OpenPostgres(cfg)
	if err == nil {
		err = ping(db, 10)
	}
	if err == nil {
		m.Logger.Info().Str("host", cfg.Host).Msg("Connected to database")
		m.DB = db
		m.SqlDB, _ = db.DB()
		return nil
	}

	m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
	db, err = OpenSQLite("")
	if err != nil {
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}
	if err := ping(db, 0); err != nil {
		return err
	}
	m.Logger.Info().Msg("Using local SQLite DB in memory")
	m.DB = db
	m.SqlDB, _ = db.DB()
	m.Local = true
	return nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	start := time.Now()
	err := m.SqlDB.Close()
	m.Logger.Debug().Dur("duration", time.Since(start)).Msg("Closed database")
	return err
}

func ping(db *gorm.DB, maxOpen int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	return nil
}
