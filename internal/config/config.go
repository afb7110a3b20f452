// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backup   BackupConfig
	Storage  StorageConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects the dialect and its connection settings.
// Path is used by sqlite; the remaining fields by postgres and mysql.
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Debug    bool
}

// BackupConfig controls snapshots of the sqlite database file.
type BackupConfig struct {
	Dir           string
	Time          string // "HH:MM", local time
	RetentionDays int
	Schedule      bool
}

// StorageConfig enables off-site replication of snapshots to an S3-compatible bucket.
// Replication is disabled when Endpoint is empty.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev                  bool
	Migrations           bool
	SessionSecret        string
	SessionTTL           time.Duration
	ProfileCacheTTL      time.Duration
	ReportsDir           string
	AdminDefaultPassword string
}

// Enabled reports whether replication is configured.
func (s StorageConfig) Enabled() bool { return s.Endpoint != "" }

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	case DriverMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.DBName,
		)
	default:
		return d.Path
	}
}

// Redacted returns a description of the connection safe to log.
func (d DatabaseConfig) Redacted() string {
	if d.Driver == DriverSQLite || d.Driver == "" {
		return "sqlite path=" + d.Path
	}
	return fmt.Sprintf("%s host=%s port=%d dbname=%s user=%s", d.Driver, d.Host, d.Port, d.DBName, d.User)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for a single-machine install.
func Load() *Config {
	dataDir := getEnv("DATA_DIR", ".")
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", DriverSQLite),
			Path:     getEnv("DB_PATH", filepath.Join(dataDir, "assets.db")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "assets"),
			Password: getEnv("DB_PASSWORD", "assets123"),
			DBName:   getEnv("DB_NAME", "assets"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		Backup: BackupConfig{
			Dir:           getEnv("BACKUP_DIR", filepath.Join(dataDir, "backups")),
			Time:          getEnv("BACKUP_TIME", "00:00"),
			RetentionDays: getEnvInt("BACKUP_RETENTION_DAYS", 365),
			Schedule:      getEnvBool("BACKUP_SCHEDULE", true),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
			Bucket:    getEnv("BACKUP_S3_BUCKET", "asset-backups"),
			Region:    getEnv("BACKUP_S3_REGION", ""),
			UseSSL:    getEnvBool("BACKUP_S3_SSL", false),
		},
		App: AppConfig{
			Dev:                  getEnvBool("DEV", false),
			Migrations:           getEnvBool("MIGRATIONS", false),
			SessionSecret:        getEnv("SESSION_SECRET", "devsessionsecret"),
			SessionTTL:           getEnvDuration("SESSION_TTL", 12*time.Hour),
			ProfileCacheTTL:      getEnvDuration("PROFILE_CACHE_TTL", 5*time.Minute),
			ReportsDir:           getEnv("REPORTS_DIR", filepath.Join(dataDir, "reports")),
			AdminDefaultPassword: getEnv("ADMIN_DEFAULT_PASSWORD", "admin123"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration parses values like "90s" or "12h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
