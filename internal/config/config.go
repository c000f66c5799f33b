// Package config loads aether_navlink.cfg.json through viper.
package config

import (
	"fmt"
	"time"

	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up next to the extension.
const FileName = "aether_navlink.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds sqlite backend settings.
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// PostgresConfig holds postgres backend settings.
type PostgresConfig struct {
	BatchSize     int           `json:"batchSize" mapstructure:"batchSize"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
}

// WebSocketConfig holds websocket backend settings.
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the link storage backend.
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Postgres  PostgresConfig  `json:"postgres" mapstructure:"postgres"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// DSN renders the connection string for the postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds InfluxDB settings.
type InfluxConfig struct {
	Enabled  bool
	Protocol string
	Host     string
	Port     string
	Token    string
	Org      string
	Bucket   string
}

// URL returns the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds the GELF log sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// UndoConfig holds undo history settings.
type UndoConfig struct {
	MaxHistory int
}

// MonitorConfig holds the status monitor settings.
type MonitorConfig struct {
	Interval time.Duration
}

// APIConfig holds the link server HTTP settings.
type APIConfig struct {
	ServerURL        string
	APIKey           string
	UploadOnShutdown bool
}

// Load reads configuration from the JSON file in configDir and sets defaults.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// SetDefaults registers every default value. Load calls it; callers running
// without a config file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./navlinklogs")

	viper.SetDefault("link.magnitude", core.Jump96.String())
	viper.SetDefault("link.snapMode", core.SnapUp.String())
	viper.SetDefault("link.acrossAxis", core.AxisForward.String())
	viper.SetDefault("link.autoSnapOnChange", true)
	viper.SetDefault("link.unitsToCm", 2.54)
	viper.SetDefault("link.acrossExtraCm", 0.0)

	viper.SetDefault("undo.maxHistory", 100)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./navlinks")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./navlinks/navlinks.db")
	viper.SetDefault("storage.postgres.batchSize", 500)
	viper.SetDefault("storage.postgres.flushInterval", "2s")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/v1/navlinks/ingest")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "navlinks")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "aether-metrics")
	viper.SetDefault("influx.bucket", "navlinks")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "aether-navlink")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("monitor.interval", "30s")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.uploadOnShutdown", false)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetLinkDefaults returns the settings new proxies are created with.
func GetLinkDefaults() core.LinkSettings {
	return core.LinkSettings{
		Magnitude:        viper.GetString("link.magnitude"),
		SnapMode:         viper.GetString("link.snapMode"),
		AcrossAxis:       viper.GetString("link.acrossAxis"),
		AutoSnapOnChange: viper.GetBool("link.autoSnapOnChange"),
		UnitsToCm:        viper.GetFloat64("link.unitsToCm"),
		AcrossExtraCm:    viper.GetFloat64("link.acrossExtraCm"),
	}
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		Postgres: PostgresConfig{
			BatchSize:     viper.GetInt("storage.postgres.batchSize"),
			FlushInterval: viper.GetDuration("storage.postgres.flushInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslmode"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF sink configuration.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetUndoConfig returns the undo history configuration.
func GetUndoConfig() UndoConfig {
	return UndoConfig{MaxHistory: viper.GetInt("undo.maxHistory")}
}

// GetMonitorConfig returns the status monitor configuration.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{Interval: viper.GetDuration("monitor.interval")}
}

// GetAPIConfig returns the link server HTTP configuration.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL:        viper.GetString("api.serverUrl"),
		APIKey:           viper.GetString("api.apiKey"),
		UploadOnShutdown: viper.GetBool("api.uploadOnShutdown"),
	}
}
