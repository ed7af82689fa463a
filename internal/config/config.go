// Package config loads the pipeline settings from environment variables.
// Defaults cover a local run against the bundled input folder; database URLs
// are the only values that must be supplied.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Pipeline  PipelineConfig
	Report    ReportConfig
	Raw       RawDatabaseConfig
	Warehouse WarehouseDatabaseConfig
	Pool      PoolConfig
	Publish   PublishConfig
	Server    ServerConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// PipelineConfig holds input and output locations.
type PipelineConfig struct {
	// InputDir is the folder holding empregados.csv, produtos.csv and vendas.csv
	InputDir string `env:"INPUT_DIR" default:"arquivos_teste_dados_bus2"`

	// OutputDir receives the snapshot and the report (default: outputs)
	OutputDir string `env:"OUTPUT_DIR" default:"outputs"`

	SnapshotFile string `env:"SNAPSHOT_FILE" default:"resumo-vendas.parquet"`
	ReportFile   string `env:"REPORT_FILE" default:"relatorio-preliminar.pdf"`

	// InferKeyColumns enables the legacy "first column containing id" lookup
	// when the canonical key column is absent.
	InferKeyColumns bool `env:"INFER_KEY_COLUMNS" default:"false"`

	// DateDayFirst reads ambiguous dates like 01/02/2024 as 1 February
	DateDayFirst bool `env:"DATE_DAY_FIRST" default:"false"`
}

// ReportConfig holds PDF report settings.
type ReportConfig struct {
	Title        string `env:"REPORT_TITLE" default:"Relatório Final - Desafio Técnico"`
	Author       string `env:"REPORT_AUTHOR"`
	TopEmployees int    `env:"REPORT_TOP_EMPLOYEES" default:"10"`
	TopProducts  int    `env:"REPORT_TOP_PRODUCTS" default:"12"`
}

// RawDatabaseConfig is the destination for untransformed tables.
type RawDatabaseConfig struct {
	// Driver is one of pgx, postgres, mysql, memory (default: pgx)
	Driver string `env:"RAW_DB_DRIVER" default:"pgx"`

	// URL is the connection string, required unless Driver is memory.
	// Supports both RAW_DATABASE_URL and DATABASE_URL.
	URL string `env:"RAW_DATABASE_URL" envAlt:"DATABASE_URL"`
}

// WarehouseDatabaseConfig is the destination for transformed views.
type WarehouseDatabaseConfig struct {
	Driver string `env:"DW_DB_DRIVER" default:"pgx"`

	// Supports both DW_DATABASE_URL and DATABASE_URL_DW.
	URL string `env:"DW_DATABASE_URL" envAlt:"DATABASE_URL_DW"`
}

// PoolConfig holds connection pool and write settings shared by both sinks.
type PoolConfig struct {
	// MaxConns is the maximum number of connections per pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// BatchSize is the number of rows per INSERT statement (default: 1000)
	BatchSize int `env:"DB_BATCH_SIZE" default:"1000"`

	// WriteTimeout bounds a single table replace (default: 5m)
	WriteTimeout time.Duration `env:"DB_WRITE_TIMEOUT" default:"5m"`
}

// PublishConfig holds the optional S3 upload of run outputs.
type PublishConfig struct {
	// Bucket enables publishing when set
	Bucket string `env:"PUBLISH_S3_BUCKET"`
	Prefix string `env:"PUBLISH_S3_PREFIX" default:"reports"`
	Region string `env:"AWS_REGION" envAlt:"AWS_DEFAULT_REGION" default:"us-east-1"`
}

// ServerConfig holds settings for serve mode.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// ScheduleInterval runs the pipeline periodically while serving; 0 disables it
	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" default:"0s"`
}

// SecurityConfig holds settings for the HTTP surface.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards run-triggering endpoints with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// PublishEnabled reports whether outputs should be uploaded after a run.
func (c *PublishConfig) PublishEnabled() bool {
	return c.Bucket != ""
}
